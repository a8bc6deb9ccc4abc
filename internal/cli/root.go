// Package cli implements the animestream command-line interface
package cli

import (
	"github.com/spf13/cobra"

	"github.com/alvarorichard/animestream/internal/config"
	"github.com/alvarorichard/animestream/internal/util"
	"github.com/alvarorichard/animestream/internal/version"
)

// app is the state shared by every subcommand
type app struct {
	configPath string
	debug      bool
	cfg        *config.Config
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "animestream",
		Short:   "Resolve anime episodes to playable streams",
		Version: version.Version,
		Long: `animestream merges the streams of an anime aggregator with two scrape sites
and resolves embed pages into direct HLS locators.

Examples:
  animestream serve                                   # Run the HTTP relay
  animestream resolve "one-piece-100?ep=2142" -e 1    # Print every stream
  animestream resolve "one-piece-100?ep=2142" --pick  # Choose one interactively
  animestream page naruto-shippuden                   # Inspect the Hindi dub page`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a config file")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		a.newServeCmd(),
		a.newResolveCmd(),
		a.newSlugCmd(),
		a.newPageCmd(),
		a.newSeasonsCmd(),
		a.newHistoryCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("debug") {
		cfg.Set("debug", a.debug)
	}
	a.cfg = cfg

	util.SetDebugMode(cfg.Debug())
	util.Logger = util.NewLogger(cmd.ErrOrStderr(), cfg.Debug())
	if used := cfg.Used(); used != "" {
		util.Debug("Loaded config", "file", used)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
