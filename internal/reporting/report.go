// Package reporting renders the results of one analysis run as
// Markdown and CSV files.
package reporting

import (
	"time"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/stats"
)

// Report represents one analysis run's output.
type Report struct {
	// Metadata
	GeneratedAt  time.Time
	Symbol       string
	FilterTokens []string

	// Run Summary
	RunSummary RunSummary

	// Filtered-day statistics
	DaySummary *stats.DaySummary

	// Bucketed measures over the surviving minute bars
	Hourly  []stats.Bucket
	Weekday []stats.Bucket
	Monthly []stats.Bucket

	// Intraday volatility curve
	VolCurve []stats.VolCurvePoint

	// Trailing daily-return statistics over the surviving days
	DailyTrend []DailyTrend

	// Pairwise correlations between the daily metrics of the
	// surviving days
	Correlations stats.CorrelationMatrix

	// Zone filter diagnostics, one rendered line each
	ZoneDiagnostics []string
}

// DailyTrend is one surviving day's view of the daily return series
// with its trailing-window statistics.
type DailyTrend struct {
	Date      domain.Date
	ReturnPct float64
	Mean      float64
	Std       float64
}

// RunSummary counts rows and days through the run's stages.
type RunSummary struct {
	RowsIn   int
	RowsOut  int
	DaysIn   int
	DaysOut  int
	ZoneDays int // days surviving the zone filters, equal to DaysOut without zones
}
