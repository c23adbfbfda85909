package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/stageflow/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stageflow %s\n", version.Get().String())
	},
}
