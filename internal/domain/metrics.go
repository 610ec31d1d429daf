// Package domain contains the core data structures and domain logic for the application.
package domain

import "encoding/json"

// ReportManifest lists the pre-signed download links for the shards of the
// latest usage report. An empty manifest is valid and means there is no data.
type ReportManifest struct {
	DownloadLinks []string `json:"download_links"`
}

// ReportShard is one self-contained slice of a usage report, downloaded from
// a single manifest link. The raw document is kept verbatim so it can be
// round-tripped into the output payload; only day_totals is consumed here.
type ReportShard struct {
	DayTotals []DayTotal `json:"day_totals"`

	// Raw holds the shard document exactly as received.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON parses day_totals and retains the original document bytes.
func (s *ReportShard) UnmarshalJSON(data []byte) error {
	var inner struct {
		DayTotals []DayTotal `json:"day_totals"`
	}
	if err := json.Unmarshal(data, &inner); err != nil {
		return err
	}
	s.DayTotals = inner.DayTotals
	s.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON emits the shard exactly as it was received, so the persisted
// payload carries every field the report contained, not just day_totals.
func (s ReportShard) MarshalJSON() ([]byte, error) {
	if len(s.Raw) == 0 {
		return json.Marshal(struct {
			DayTotals []DayTotal `json:"day_totals"`
		}{s.DayTotals})
	}
	return s.Raw, nil
}

// DayTotal is one daily record inside a shard. Records without a day key are
// tolerated upstream and skipped during aggregation.
type DayTotal struct {
	Day          string            `json:"day"`
	PullRequests PullRequestTotals `json:"pull_requests"`
}

// PullRequestTotals holds the four pull request counters reported per day.
// Counters absent from the document read as zero.
type PullRequestTotals struct {
	TotalReviewed          int `json:"total_reviewed"`
	TotalCreated           int `json:"total_created"`
	TotalCreatedByCopilot  int `json:"total_created_by_copilot"`
	TotalReviewedByCopilot int `json:"total_reviewed_by_copilot"`
}

// DailyAggregate is the per-day sum of the pull request counters across all
// shards. It is the core domain entity of this application.
type DailyAggregate struct {
	Day                    string `json:"day"`
	TotalReviewed          int    `json:"total_reviewed"`
	TotalCreated           int    `json:"total_created"`
	TotalCreatedByCopilot  int    `json:"total_created_by_copilot"`
	TotalReviewedByCopilot int    `json:"total_reviewed_by_copilot"`
}

// TimeSeries is a sequence of daily aggregates sorted ascending by day.
// Day strings are date-formatted, so lexical order equals chronological order.
type TimeSeries []DailyAggregate

// UsageReport is the outbound JSON document: the manifest that located the
// report plus every downloaded shard, verbatim.
type UsageReport struct {
	ReportLinks ReportManifest `json:"report_links"`
	Reports     []ReportShard  `json:"reports"`
}

// SeriesSummary holds descriptive statistics over a time series, computed on
// the per-day created and reviewed totals.
type SeriesSummary struct {
	Days           int
	CreatedMean    float64
	CreatedMedian  float64
	CreatedMax     float64
	ReviewedMean   float64
	ReviewedMedian float64
	ReviewedMax    float64
}
