package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alvarorichard/animestream/internal/tracking"
)

func (a *app) newHistoryCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent resolutions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tracker, err := tracking.NewLocalTracker(a.cfg.TrackingDBPath())
			if errors.Is(err, tracking.ErrCgoDisabled) {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "History is unavailable: this build has no SQLite support (CGO_ENABLED=0).")
				return nil
			}
			if err != nil {
				return err
			}
			defer func() { _ = tracker.Close() }()

			events, err := tracker.Recent(commandContext(cmd), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), events)
			}
			counts, err := tracker.CountByOutcome(commandContext(cmd))
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), events, counts)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the entries as JSON")
	return cmd
}
