// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aki-fujii/copilot-pr-metrics/internal/appauth"
	"github.com/aki-fujii/copilot-pr-metrics/internal/chart"
	"github.com/aki-fujii/copilot-pr-metrics/internal/config"
	"github.com/aki-fujii/copilot-pr-metrics/internal/gateway"
	"github.com/aki-fujii/copilot-pr-metrics/internal/logging"
	"github.com/aki-fujii/copilot-pr-metrics/internal/usecase"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Downloads the latest Copilot usage report and renders a PR summary",
	Long: `Authenticates as a GitHub App, exchanges a signed assertion for an
installation access token, downloads the latest enterprise 28-day Copilot
usage report, and aggregates per-day pull request metrics. The raw report is
written as JSON and a human-vs-Copilot summary chart is rendered next to it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := logging.Setup(os.Stderr, verbose)

		flags := config.Flags{}
		flags.AppID, _ = cmd.Flags().GetString("app-id")
		flags.PrivateKey, _ = cmd.Flags().GetString("private-key")
		flags.InstallationID, _ = cmd.Flags().GetString("installation-id")
		flags.Enterprise, _ = cmd.Flags().GetString("enterprise")
		flags.APIBase, _ = cmd.Flags().GetString("api-base")
		flags.Output, _ = cmd.Flags().GetString("output")

		settings, err := config.Load(flags)
		if err != nil {
			return err
		}
		logger.Debug("resolved settings",
			"app_id", logging.MaskSensitive(settings.AppID),
			"enterprise", settings.Enterprise,
			"api_base", settings.APIBase)

		privateKeyPEM, err := os.ReadFile(settings.PrivateKeyPath)
		if err != nil {
			return fmt.Errorf("reading private key %s: %w", settings.PrivateKeyPath, err)
		}

		logger.Debug("generating app assertion")
		assertion, err := appauth.Mint(settings.AppID, privateKeyPEM, nil)
		if err != nil {
			return err
		}

		// Inject dependencies and run the pipeline.
		githubGateway, err := gateway.NewGitHubGateway(settings.APIBase, settings.InstallationID, settings.Enterprise, logger)
		if err != nil {
			return err
		}
		pipeline := usecase.NewPipeline(githubGateway, logger)
		report, err := pipeline.Run(ctx, assertion)
		if err != nil {
			return err
		}

		// Persist the raw report next to the chart, pretty-printed.
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling report to JSON: %w", err)
		}
		today := time.Now().Format("2006-01-02")
		outputPath := settings.Output
		if outputPath == "" {
			outputPath = fmt.Sprintf("metrics-%s.json", today)
		}
		if err := os.WriteFile(outputPath, append(payload, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		logger.Info("wrote metrics output", "path", outputPath, "shards", len(report.Reports))

		series := usecase.BuildTimeSeries(report.Reports)
		if summary, err := usecase.Summarize(series); err == nil {
			logger.Info("pull request series summary",
				"days", summary.Days,
				"created_mean", summary.CreatedMean,
				"created_median", summary.CreatedMedian,
				"created_max", summary.CreatedMax,
				"reviewed_mean", summary.ReviewedMean,
				"reviewed_median", summary.ReviewedMedian,
				"reviewed_max", summary.ReviewedMax)
		}

		chartPath, _ := cmd.Flags().GetString("chart")
		if chartPath == "" {
			chartPath = fmt.Sprintf("pr-summary-%s.html", today)
		}
		if err := chart.NewRenderer().Render(series, chartPath); err != nil {
			return err
		}
		logger.Info("wrote PR summary chart", "path", chartPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.Flags().String("app-id", "", "GitHub App ID")
	metricsCmd.Flags().String("private-key", "", "Path to the GitHub App private key PEM file")
	metricsCmd.Flags().String("installation-id", "", "GitHub App installation ID")
	metricsCmd.Flags().String("enterprise", "", "GitHub enterprise slug for the metrics endpoint")
	metricsCmd.Flags().String("api-base", "", "GitHub API base URL (default: "+config.DefaultAPIBase+")")
	metricsCmd.Flags().String("output", "", "Path for the JSON output (default: metrics-YYYY-MM-DD.json)")
	metricsCmd.Flags().String("chart", "", "Path for the summary chart (default: pr-summary-YYYY-MM-DD.html)")
}
