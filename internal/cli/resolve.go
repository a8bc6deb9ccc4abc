package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh/spinner"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/alvarorichard/animestream/internal/appflow"
	"github.com/alvarorichard/animestream/internal/models"
	"github.com/alvarorichard/animestream/internal/scraper"
	"github.com/alvarorichard/animestream/internal/util"
)

// ErrNoSources is returned by --pick when there is nothing to choose from
var ErrNoSources = errors.New("no sources to pick from")

type resolveOptions struct {
	name     string
	episode  int
	server   string
	category string
	pick     bool
	json     bool
}

func (a *app) newResolveCmd() *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <episodeId>",
		Short: "Resolve every stream of an aggregator episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runResolve(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Anime title, used to pick the scrape-site season")
	cmd.Flags().IntVarP(&opts.episode, "episode", "e", 0, "Episode number for the scrape sites")
	cmd.Flags().StringVarP(&opts.server, "server", "s", "hd-1", "Aggregator server")
	cmd.Flags().StringVarP(&opts.category, "category", "c", "sub", "Aggregator category (sub, dub, raw)")
	cmd.Flags().BoolVarP(&opts.pick, "pick", "p", false, "Choose a source interactively and print its URL")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the result as JSON")
	return cmd
}

func (a *app) runResolve(cmd *cobra.Command, episodeID string, opts *resolveOptions) error {
	ctx := commandContext(cmd)

	ext, extCloser := clientExtractor(a.cfg)
	recorder, recCloser := openRecorder(a.cfg)
	defer closeAll(extCloser, recCloser)

	s := settings(a.cfg)
	s.Extractor = ext
	s.Recorder = recorder
	pipeline := appflow.New(s)

	req := scraper.CombineRequest{
		EpisodeID:     episodeID,
		AnimeName:     opts.name,
		EpisodeNumber: opts.episode,
		Server:        opts.server,
		Category:      opts.category,
	}

	var (
		result *models.CombinedResult
		err    error
	)
	resolve := func() { result, err = pipeline.Resolve(ctx, req) }
	runWithProgress(interactive(cmd.OutOrStdout()) && !opts.json, resolve, func(action func()) error {
		return spinner.New().
			Title("Resolving streams...").
			Type(spinner.Dots).
			Action(action).
			Run()
	})
	if err != nil {
		return err
	}
	if result == nil {
		return errors.New("resolution produced no result")
	}

	if util.IsDebug {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), pipeline.Metrics.Report())
	}

	switch {
	case opts.pick:
		source, err := pickSource(result.Sources)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), source.URL)
		return err
	case opts.json:
		return writeJSON(cmd.OutOrStdout(), result)
	default:
		renderResult(cmd.OutOrStdout(), result)
		return nil
	}
}

// runWithProgress runs action behind show when enabled. If the progress
// display fails before the action completed, the action runs directly.
func runWithProgress(enabled bool, action func(), show func(func()) error) {
	if !enabled {
		action()
		return
	}
	done := false
	err := show(func() {
		action()
		done = true
	})
	if err != nil {
		util.Debug("Spinner failed", "error", err)
	}
	if !done {
		action()
	}
}

func pickSource(sources []models.StreamingSource) (models.StreamingSource, error) {
	if len(sources) == 0 {
		return models.StreamingSource{}, ErrNoSources
	}

	idx, err := fuzzyfinder.Find(
		sources,
		func(i int) string {
			return sourceLine(sources[i])
		},
		fuzzyfinder.WithPromptString("source> "),
	)
	if err != nil {
		return models.StreamingSource{}, fmt.Errorf("failed to select source with go-fuzzyfinder: %w", err)
	}
	if idx < 0 || idx >= len(sources) {
		return models.StreamingSource{}, errors.New("invalid index returned by fuzzyfinder")
	}
	return sources[idx], nil
}

// interactive reports whether w is a terminal
func interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
