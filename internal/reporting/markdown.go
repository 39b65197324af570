package reporting

import (
	"fmt"
	"strings"
	"time"

	"intraday-almanac/internal/stats"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Intraday Almanac: %s\n\n", r.Symbol))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if len(r.FilterTokens) > 0 {
		sb.WriteString(fmt.Sprintf("Filters: %s\n\n", strings.Join(r.FilterTokens, ", ")))
	} else {
		sb.WriteString("Filters: none\n\n")
	}

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Minute Rows In | %d |\n", r.RunSummary.RowsIn))
	sb.WriteString(fmt.Sprintf("| Minute Rows Out | %d |\n", r.RunSummary.RowsOut))
	sb.WriteString(fmt.Sprintf("| Days In | %d |\n", r.RunSummary.DaysIn))
	sb.WriteString(fmt.Sprintf("| Days Out | %d |\n", r.RunSummary.DaysOut))
	sb.WriteString(fmt.Sprintf("| Days After Zone Filters | %d |\n", r.RunSummary.ZoneDays))
	sb.WriteString("\n")

	// Day statistics
	sb.WriteString("## Filtered-Day Statistics\n\n")
	if r.DaySummary != nil {
		writeDaySummary(&sb, r.DaySummary)
	} else {
		sb.WriteString("No days survived filtering.\n\n")
	}

	// Bucket tables
	writeBucketSection(&sb, "Hourly Measures", r.Hourly)
	writeBucketSection(&sb, "Weekday Measures", r.Weekday)
	writeBucketSection(&sb, "Monthly Measures", r.Monthly)

	// Vol curve
	sb.WriteString("## Intraday Volatility Curve\n\n")
	if len(r.VolCurve) > 0 {
		sb.WriteString("| Time | Mean Abs %Chg | Q25 | Q75 | Count |\n")
		sb.WriteString("|------|---------------|-----|-----|-------|\n")
		for _, p := range r.VolCurve {
			sb.WriteString(fmt.Sprintf("| %s | %.6f | %.6f | %.6f | %d |\n",
				p.TimeOfDay, p.Mean, p.Q25, p.Q75, p.Count))
		}
	} else {
		sb.WriteString("No volatility data available.\n")
	}
	sb.WriteString("\n")

	// Daily trend
	sb.WriteString("## Daily Return Trend\n\n")
	if len(r.DailyTrend) > 0 {
		sb.WriteString("| Date | Return % | Trailing Mean | Trailing Std |\n")
		sb.WriteString("|------|----------|---------------|--------------|\n")
		for _, p := range r.DailyTrend {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f |\n",
				p.Date, p.ReturnPct, p.Mean, p.Std))
		}
	} else {
		sb.WriteString("No daily data available.\n")
	}
	sb.WriteString("\n")

	// Correlations
	sb.WriteString("## Daily Metric Correlations\n\n")
	if len(r.Correlations.Labels) > 0 {
		sb.WriteString("| |")
		for _, label := range r.Correlations.Labels {
			sb.WriteString(fmt.Sprintf(" %s |", label))
		}
		sb.WriteString("\n|---|")
		for range r.Correlations.Labels {
			sb.WriteString("---|")
		}
		sb.WriteString("\n")
		for i, label := range r.Correlations.Labels {
			sb.WriteString(fmt.Sprintf("| %s |", label))
			for _, v := range r.Correlations.Values[i] {
				sb.WriteString(fmt.Sprintf(" %.4f |", v))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No daily data available.\n")
	}
	sb.WriteString("\n")

	// Zone diagnostics
	sb.WriteString("## Zone Filter Diagnostics\n\n")
	if len(r.ZoneDiagnostics) > 0 {
		for _, line := range r.ZoneDiagnostics {
			sb.WriteString(fmt.Sprintf("- %s\n", line))
		}
	} else {
		sb.WriteString("No zone filters applied.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// writeDaySummary renders the filtered-day statistics block.
func writeDaySummary(sb *strings.Builder, s *stats.DaySummary) {
	sb.WriteString(fmt.Sprintf("Days: %d | Green: %d | Red: %d | Green%%: %.2f\n\n",
		s.NumDays, s.GreenDays, s.RedDays, s.GreenPct))

	sb.WriteString("| Metric | Mean | Median | Std | Min | Max |\n")
	sb.WriteString("|--------|------|--------|-----|-----|-----|\n")
	writeDistribution(sb, "Close-Open %", s.CloseOpenPct)
	writeDistribution(sb, "Range %", s.RangePct)
	writeDistribution(sb, "High-Open %", s.HighOpenPct)
	writeDistribution(sb, "Open-Low %", s.OpenLowPct)
	if s.FirstHourHighOpenPct != nil {
		writeDistribution(sb, "First-Hour High-Open %", *s.FirstHourHighOpenPct)
	}
	if s.FirstHourOpenLowPct != nil {
		writeDistribution(sb, "First-Hour Open-Low %", *s.FirstHourOpenLowPct)
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Avg Volume: %.0f | Median Volume: %.0f\n\n",
		s.AvgVolume, s.MedianVolume))

	if s.AvgHODHour != nil && s.AvgLODHour != nil {
		sb.WriteString(fmt.Sprintf("HOD hour: avg %.2f, median %.2f | LOD hour: avg %.2f, median %.2f\n\n",
			*s.AvgHODHour, *s.MedianHODHour, *s.AvgLODHour, *s.MedianLODHour))
	}
}

func writeDistribution(sb *strings.Builder, label string, d stats.Distribution) {
	sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
		label, d.Mean, d.Median, d.Std, d.Min, d.Max))
}

// writeBucketSection renders one bucket table.
func writeBucketSection(sb *strings.Builder, title string, buckets []stats.Bucket) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	if len(buckets) == 0 {
		sb.WriteString("No data available.\n\n")
		return
	}

	sb.WriteString("| Bucket | Count | %Chg Mean | %Chg Trimmed | %Chg Median | %Chg OutlierMean | %Chg Var | Rng Mean | Rng Median |\n")
	sb.WriteString("|--------|-------|-----------|--------------|-------------|------------------|----------|----------|------------|\n")
	for _, b := range buckets {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.6f | %.6f | %.6f | %.6f | %.6f | %.4f | %.4f |\n",
			b.Label, b.Count,
			b.PctChange.Mean, b.PctChange.TrimmedMean, b.PctChange.Median,
			b.PctChange.OutlierMean, b.PctChange.Variance,
			b.Range.Mean, b.Range.Median))
	}
	sb.WriteString("\n")
}
