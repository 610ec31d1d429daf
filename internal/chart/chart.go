// Package chart renders a time series of pull request metrics into a
// two-panel summary chart: review activity and creation activity, each split
// into human and Copilot contributions.
package chart

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/aki-fujii/copilot-pr-metrics/internal/domain"
)

// Renderer writes PR summary charts to disk.
type Renderer struct{}

// NewRenderer creates a new Renderer instance.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render writes a grouped bar chart page for the series to path. An empty
// series is rejected with domain.ErrNoData rather than rendered blank.
func (r *Renderer) Render(series domain.TimeSeries, path string) error {
	if len(series) == 0 {
		return domain.ErrNoData
	}

	days := make([]string, len(series))
	reviewedHuman := make([]opts.BarData, len(series))
	reviewedCopilot := make([]opts.BarData, len(series))
	createdHuman := make([]opts.BarData, len(series))
	createdCopilot := make([]opts.BarData, len(series))
	for i, day := range series {
		days[i] = day.Day
		reviewedHuman[i] = opts.BarData{Value: humanShare(day.TotalReviewed, day.TotalReviewedByCopilot)}
		reviewedCopilot[i] = opts.BarData{Value: day.TotalReviewedByCopilot}
		createdHuman[i] = opts.BarData{Value: humanShare(day.TotalCreated, day.TotalCreatedByCopilot)}
		createdCopilot[i] = opts.BarData{Value: day.TotalCreatedByCopilot}
	}

	page := components.NewPage()
	page.AddCharts(
		newPanel("Code Review Activity", "CCR", days, reviewedHuman, reviewedCopilot),
		newPanel("PR Creation Activity", "CCA", days, createdHuman, createdCopilot),
	)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

// newPanel builds one grouped bar panel with a human and a Copilot series
// sharing the day axis.
func newPanel(title, copilotLabel string, days []string, human, copilot []opts.BarData) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithColorsOpts(opts.Colors{"#1f77b4", "#ff7f0e"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "PRs"}),
	)
	bar.SetXAxis(days).
		AddSeries("Human", human).
		AddSeries(copilotLabel, copilot)
	return bar
}

// humanShare clamps at zero: a malformed shard can report more automated
// activity than total activity, and a negative human count must never appear.
func humanShare(total, copilot int) int {
	if human := total - copilot; human > 0 {
		return human
	}
	return 0
}
