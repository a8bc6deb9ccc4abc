package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alvarorichard/animestream/internal/appflow"
	"github.com/alvarorichard/animestream/internal/config"
	"github.com/alvarorichard/animestream/internal/relay"
	"github.com/alvarorichard/animestream/internal/util"
)

func (a *app) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Set("relay.addr", addr)
			}
			return a.runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from relay.addr)")
	return cmd
}

func (a *app) runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := a.cfg
	ext, extCloser := relayExtractor(cfg)
	recorder, recCloser := openRecorder(cfg)
	defer closeAll(extCloser, recCloser)

	s := settings(cfg)
	s.Extractor = ext
	s.Recorder = recorder
	pipeline := appflow.New(s)

	limiter := relay.NewRateLimiter(cfg.RateLimitRequests(), cfg.RateLimitWindow())
	go limiter.Run(ctx, cfg.RateLimitSweep())
	go pipeline.Run(ctx)

	server := relay.NewServer(relay.Deps{
		Aggregator:     pipeline.Aggregator,
		Resolver:       pipeline.Combiner,
		Pages:          pipeline.Pages,
		Extractor:      ext,
		Limiter:        limiter,
		Metrics:        pipeline.Metrics,
		Logger:         util.DefaultLogger(),
		ExtractTimeout: cfg.ExtractTimeout(),
	})

	if cfg.ExtractorMode() == config.ExtractorOff {
		util.Warn("Embed extraction disabled, embed sources are returned as-is")
	}
	util.Info("Starting relay", "mode", cfg.ExtractorMode(), "aggregator", cfg.AggregatorURL())
	return server.ListenAndServe(ctx, cfg.RelayAddr())
}
