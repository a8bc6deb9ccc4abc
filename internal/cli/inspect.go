package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alvarorichard/animestream/internal/appflow"
	"github.com/alvarorichard/animestream/internal/resolver"
	"github.com/alvarorichard/animestream/internal/util"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (a *app) newSlugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slug <episodeId>",
		Short: "Print the anime slug derived from an aggregator episode id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug, err := resolver.DeriveAnimeSlug(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), slug)
			return err
		},
	}
}

func (a *app) newPageCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "page <slug|title>",
		Short: "Print the Hindi dub site's page data for an anime slug or title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := appflow.New(settings(a.cfg))
			page, err := pipeline.Pages.FetchAnimePage(commandContext(cmd), util.Slugify(args[0]))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), page)
			}
			renderPage(cmd.OutOrStdout(), page)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the page as JSON")
	return cmd
}

func (a *app) newSeasonsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "seasons <animeId>",
		Short: "List the seasons of an aggregator anime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := appflow.New(settings(a.cfg))
			seasons, err := pipeline.Seasons(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), seasons)
			}
			renderSeasons(cmd.OutOrStdout(), seasons)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the seasons as JSON")
	return cmd
}
