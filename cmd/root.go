// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "copilot-pr-metrics",
	Short: "A CLI tool to aggregate GitHub Copilot pull request metrics.",
	Long: `copilot-pr-metrics authenticates as a GitHub App, downloads the latest
enterprise Copilot 28-day usage report, and aggregates per-day pull request
metrics (created/reviewed, human vs. Copilot) into a single time series.
The result is written as a JSON document and a summary chart.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}
