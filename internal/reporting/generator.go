package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/stats"
	"intraday-almanac/internal/zone"
)

// Input carries the artifacts of one analysis run into the generator.
type Input struct {
	Symbol       string
	FilterTokens []string

	// Minute is the full minute series before any filtering, Daily the
	// corresponding daily series.
	Minute domain.Series
	Daily  domain.Series

	// Filtered is the minute series after the day filters,
	// ZoneFiltered after the zone filters. Without zone filters the
	// caller passes the same series for both.
	Filtered     domain.Series
	ZoneFiltered domain.Series

	// ZoneDiag is nil when no zone filters ran.
	ZoneDiag *zone.Diagnostics

	// TrimPct is the per-tail trim percentage; zero uses the default.
	TrimPct float64
}

// Generator produces reports from run artifacts.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate assembles a complete report: run counts, filtered-day
// statistics, bucketed measures over the surviving bars, the intraday
// volatility curve, and the zone diagnostics.
func (g *Generator) Generate(in Input) *Report {
	trimPct := in.TrimPct
	if trimPct == 0 {
		trimPct = stats.DefaultTrimPct
	}

	final := in.ZoneFiltered

	r := &Report{
		GeneratedAt:  g.now(),
		Symbol:       in.Symbol,
		FilterTokens: in.FilterTokens,
		RunSummary: RunSummary{
			RowsIn:   len(in.Minute),
			RowsOut:  len(final),
			DaysIn:   len(in.Minute.Dates()),
			DaysOut:  len(in.Filtered.Dates()),
			ZoneDays: len(final.Dates()),
		},
		DaySummary: stats.FilteredDaySummary(final, in.Daily),
		Hourly:     stats.Hourly(final, trimPct),
		Weekday:    stats.ByWeekday(final, trimPct),
		Monthly:    stats.ByMonth(final, trimPct),
		VolCurve:   stats.IntradayVolCurve(final),
	}

	r.DailyTrend, r.Correlations = dailyTrend(final, in.Daily)

	if in.ZoneDiag != nil {
		r.ZoneDiagnostics = in.ZoneDiag.FormatLines()
	}

	return r
}

// trendWindow is the trailing window for the daily return trend.
const trendWindow = 10

// dailyTrend computes trailing-window statistics over the surviving
// days' returns and the correlation matrix of their daily metrics.
// Days without a daily bar are left out.
func dailyTrend(final, daily domain.Series) ([]DailyTrend, stats.CorrelationMatrix) {
	metrics := domain.DeriveDailyMetrics(daily)

	dates := final.Dates()
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var (
		kept    []domain.Date
		returns []float64
		relvol  []float64
		rangep  []float64
	)
	for _, d := range dates {
		m, ok := metrics[d]
		if !ok || m.Open == 0 {
			continue
		}
		kept = append(kept, d)
		returns = append(returns, m.DayReturnPct)
		relvol = append(relvol, m.RelativeVolume())
		rangep = append(rangep, (m.High-m.Low)/m.Open*100)
	}
	if len(kept) == 0 {
		return nil, stats.CorrelationMatrix{}
	}

	roll := stats.Rolling(returns, trendWindow)
	trend := make([]DailyTrend, len(kept))
	for i, d := range kept {
		trend[i] = DailyTrend{
			Date:      d,
			ReturnPct: returns[i],
			Mean:      roll.Mean[i],
			Std:       roll.Std[i],
		}
	}

	corr, err := stats.Correlate([]stats.Column{
		{Label: "day_return_pct", Values: returns},
		{Label: "relative_volume", Values: relvol},
		{Label: "range_pct", Values: rangep},
	})
	if err != nil {
		return trend, stats.CorrelationMatrix{}
	}
	return trend, corr
}

// WriteFiles writes the report and its CSV companions into dir:
// report.md, hourly.csv, weekday.csv, monthly.csv, volcurve.csv.
func WriteFiles(dir string, r *Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]string{
		"report.md":    RenderMarkdown(r),
		"hourly.csv":   RenderBucketCSV(r.Hourly),
		"weekday.csv":  RenderBucketCSV(r.Weekday),
		"monthly.csv":  RenderBucketCSV(r.Monthly),
		"volcurve.csv": RenderVolCurveCSV(r.VolCurve),
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
