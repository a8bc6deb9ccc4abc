package cli

import (
	"github.com/spf13/cobra"

	"github.com/alvarorichard/animestream/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			version.Write(cmd.OutOrStdout())
		},
	}
}
