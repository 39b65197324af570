package reporting

import (
	"fmt"
	"strings"

	"intraday-almanac/internal/stats"
)

// RenderBucketCSV renders bucketed measures as CSV string.
func RenderBucketCSV(buckets []stats.Bucket) string {
	var sb strings.Builder

	// Header
	sb.WriteString("bucket,count,pct_mean,pct_trimmed_mean,pct_median,pct_mode,pct_outlier_mean,pct_variance,")
	sb.WriteString("rng_mean,rng_trimmed_mean,rng_median,rng_mode,rng_outlier_mean,rng_variance\n")

	// Rows
	for _, b := range buckets {
		sb.WriteString(fmt.Sprintf("%s,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			b.Label,
			b.Count,
			b.PctChange.Mean,
			b.PctChange.TrimmedMean,
			b.PctChange.Median,
			b.PctChange.Mode,
			b.PctChange.OutlierMean,
			b.PctChange.Variance,
			b.Range.Mean,
			b.Range.TrimmedMean,
			b.Range.Median,
			b.Range.Mode,
			b.Range.OutlierMean,
			b.Range.Variance,
		))
	}

	return sb.String()
}

// RenderVolCurveCSV renders the intraday volatility curve as CSV
// string.
func RenderVolCurveCSV(points []stats.VolCurvePoint) string {
	var sb strings.Builder

	sb.WriteString("time_of_day,mean_abs_pct,q25,q75,count\n")
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f,%.6f,%d\n",
			p.TimeOfDay, p.Mean, p.Q25, p.Q75, p.Count))
	}

	return sb.String()
}
