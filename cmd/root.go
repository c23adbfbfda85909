// Package cmd implements the stageflow CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/stageflow/errors"
	"github.com/kbukum/stageflow/version"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stageflow",
	Short: "Stageflow runs declarative CI/CD pipelines",
	Long: `Stageflow executes declarative pipeline definitions: stages form a
dependency graph, independent stages run in parallel, and steps invoke
external build, scan and deploy tooling.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "engine config file (default: ./stageflow.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and maps errors to process exit codes:
// 0 success, 1 run failure, 2 configuration error, 3 internal error.
func Execute() {
	rootCmd.Version = version.Get().Short()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stageflow:", err)
		os.Exit(errors.ExitCode(err))
	}
}
