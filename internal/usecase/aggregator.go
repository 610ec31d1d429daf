package usecase

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/aki-fujii/copilot-pr-metrics/internal/domain"
)

// BuildTimeSeries merges the per-day pull request counters of every shard
// into one time series sorted ascending by day. Summation is commutative and
// associative, so shard order and record order carry no meaning. Records
// without a day key are skipped; counters a shard omitted count as zero.
func BuildTimeSeries(shards []domain.ReportShard) domain.TimeSeries {
	totalsByDay := make(map[string]*domain.DailyAggregate)

	for _, shard := range shards {
		for _, dayTotal := range shard.DayTotals {
			if dayTotal.Day == "" {
				continue
			}
			bucket, ok := totalsByDay[dayTotal.Day]
			if !ok {
				bucket = &domain.DailyAggregate{Day: dayTotal.Day}
				totalsByDay[dayTotal.Day] = bucket
			}
			pr := dayTotal.PullRequests
			bucket.TotalReviewed += pr.TotalReviewed
			bucket.TotalCreated += pr.TotalCreated
			bucket.TotalCreatedByCopilot += pr.TotalCreatedByCopilot
			bucket.TotalReviewedByCopilot += pr.TotalReviewedByCopilot
		}
	}

	// Day strings are date-formatted, so lexical order is chronological.
	series := make(domain.TimeSeries, 0, len(totalsByDay))
	for _, aggregate := range totalsByDay {
		series = append(series, *aggregate)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Day < series[j].Day
	})
	return series
}

// Summarize computes descriptive statistics over the per-day created and
// reviewed totals. An empty series yields domain.ErrNoData.
func Summarize(series domain.TimeSeries) (domain.SeriesSummary, error) {
	if len(series) == 0 {
		return domain.SeriesSummary{}, domain.ErrNoData
	}

	created := make([]float64, len(series))
	reviewed := make([]float64, len(series))
	for i, day := range series {
		created[i] = float64(day.TotalCreated)
		reviewed[i] = float64(day.TotalReviewed)
	}

	summary := domain.SeriesSummary{Days: len(series)}
	var err error
	if summary.CreatedMean, err = stats.Mean(created); err != nil {
		return domain.SeriesSummary{}, err
	}
	if summary.CreatedMedian, err = stats.Median(created); err != nil {
		return domain.SeriesSummary{}, err
	}
	if summary.CreatedMax, err = stats.Max(created); err != nil {
		return domain.SeriesSummary{}, err
	}
	if summary.ReviewedMean, err = stats.Mean(reviewed); err != nil {
		return domain.SeriesSummary{}, err
	}
	if summary.ReviewedMedian, err = stats.Median(reviewed); err != nil {
		return domain.SeriesSummary{}, err
	}
	if summary.ReviewedMax, err = stats.Max(reviewed); err != nil {
		return domain.SeriesSummary{}, err
	}
	return summary, nil
}
