package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/bexpr/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Shows the version",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, version.Info())
		fmt.Fprintf(out, "  evaluator: %s\n", version.ServiceVersion("evaluator"))
		fmt.Fprintf(out, "  gateway:   %s\n", version.ServiceVersion("gateway"))
		fmt.Fprintf(out, "  history:   %s\n", version.ServiceVersion("history"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
