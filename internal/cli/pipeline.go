package cli

import (
	"errors"
	"io"

	"github.com/alvarorichard/animestream/internal/appflow"
	"github.com/alvarorichard/animestream/internal/config"
	"github.com/alvarorichard/animestream/internal/extractor"
	"github.com/alvarorichard/animestream/internal/metrics"
	"github.com/alvarorichard/animestream/internal/tracking"
	"github.com/alvarorichard/animestream/internal/util"
)

// settings maps the config onto pipeline settings
func settings(cfg *config.Config) appflow.Settings {
	scrapeTimeout := cfg.ScrapeTimeout()
	if scrapeTimeout == 0 {
		scrapeTimeout = -1
	}
	return appflow.Settings{
		AggregatorURL:       cfg.AggregatorURL(),
		WatchAnimeWorldURL:  cfg.WatchAnimeWorldURL(),
		AnimeHindiDubbedURL: cfg.AnimeHindiDubbedURL(),
		HTTPClient:          util.GetSharedClient(),
		ScrapeClient:        util.GetScrapeClient(),
		ScrapeTimeout:       scrapeTimeout,
		ExtractTimeout:      cfg.ExtractTimeout(),
		ExtractWorkers:      cfg.ExtractWorkers(),
		PageCacheTTL:        cfg.CacheTTL(),
		PageCacheSize:       cfg.CacheSize(),
		Logger:              util.DefaultLogger(),
		Metrics:             metrics.NewRegistry(),
	}
}

// clientExtractor is the extractor used by one-shot commands
func clientExtractor(cfg *config.Config) (extractor.Extractor, io.Closer) {
	switch cfg.ExtractorMode() {
	case config.ExtractorHeadless:
		h := extractor.NewHeadless(util.DefaultLogger())
		return h, h
	case config.ExtractorOff:
		return extractor.Noop{}, nil
	default:
		return extractor.NewRemoteClient(cfg.ExtractorURL(), util.GetSharedClient()), nil
	}
}

// relayExtractor is the extractor hosted by the relay. The remote client
// would call the relay itself, so remote mode hosts the headless one too.
func relayExtractor(cfg *config.Config) (extractor.Extractor, io.Closer) {
	if cfg.ExtractorMode() == config.ExtractorOff {
		return extractor.Noop{}, nil
	}
	h := extractor.NewHeadless(util.DefaultLogger())
	return h, h
}

// openRecorder opens the history database. History is optional, so a
// failure is logged and resolution continues without it.
func openRecorder(cfg *config.Config) (tracking.Recorder, io.Closer) {
	tracker, err := tracking.NewLocalTracker(cfg.TrackingDBPath())
	if errors.Is(err, tracking.ErrCgoDisabled) {
		util.Debug("Resolution history disabled", "error", err)
		return nil, nil
	}
	if err != nil {
		util.Warn("Resolution history unavailable", "path", cfg.TrackingDBPath(), "error", err)
		return nil, nil
	}
	return tracker, tracker
}

func closeAll(closers ...io.Closer) {
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			util.Debug("Close failed", "error", err)
		}
	}
}
