// Package stats computes distributional summaries over minute bar
// series: six-measure bucket statistics, intraday volatility curves,
// rolling metrics, correlations, and filtered-day summaries.
package stats

import (
	"math"
	"sort"
)

// DefaultTrimPct is the percentage trimmed from each tail by the
// outlier-robust measures.
const DefaultTrimPct = 5.0

// trimFallbackMin is the minimum bucket size before the trimmed and
// outlier means fall back to the plain mean.
const trimFallbackMin = 10

// Measures holds the six summary measures computed per bucket.
// Mode is a documented stand-in: the true mode is ill-defined for
// continuous data, so it is reported as the median.
type Measures struct {
	Mean        float64
	TrimmedMean float64
	Median      float64
	Mode        float64
	OutlierMean float64
	Variance    float64
}

// computeMeasures calculates all six measures for one bucket.
// trimPct is the percentage trimmed from each tail (0-50).
func computeMeasures(values []float64, trimPct float64) Measures {
	if len(values) == 0 {
		return Measures{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := computeMean(values)
	median := computePercentile(sorted, 0.50)

	return Measures{
		Mean:        mean,
		TrimmedMean: computeTrimmedMean(sorted, mean, trimPct),
		Median:      median,
		Mode:        median,
		OutlierMean: computeOutlierMean(sorted, mean, trimPct),
		Variance:    computeVariance(values, mean),
	}
}

// computeMean calculates the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeVariance calculates sample variance (n-1 denominator).
func computeVariance(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0 // Need at least 2 samples for sample variance
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(n-1)
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	return math.Sqrt(computeVariance(values, mean))
}

// computeTrimmedMean averages the values inside the symmetric quantile
// band [trimPct, 100-trimPct]. Buckets smaller than trimFallbackMin use
// the plain mean.
// sorted must be pre-sorted ASC.
func computeTrimmedMean(sorted []float64, mean, trimPct float64) float64 {
	if len(sorted) < trimFallbackMin {
		return mean
	}

	qLow := computePercentile(sorted, trimPct/100.0)
	qHigh := computePercentile(sorted, 1.0-trimPct/100.0)

	sum := 0.0
	count := 0
	for _, v := range sorted {
		if v >= qLow && v <= qHigh {
			sum += v
			count++
		}
	}
	if count == 0 {
		return mean
	}
	return sum / float64(count)
}

// computeOutlierMean is the midpoint of the two trim quantiles. It
// measures the magnitude of extremes rather than excluding them.
// Buckets smaller than trimFallbackMin use the plain mean.
// sorted must be pre-sorted ASC.
func computeOutlierMean(sorted []float64, mean, trimPct float64) float64 {
	if len(sorted) < trimFallbackMin {
		return mean
	}

	qLow := computePercentile(sorted, trimPct/100.0)
	qHigh := computePercentile(sorted, 1.0-trimPct/100.0)
	return (qLow + qHigh) / 2
}

// Percentile returns the p-quantile (p in [0,1]) of a pre-sorted slice
// using linear interpolation. Exposed for callers that trim on the same
// quantile definition the bucket measures use.
func Percentile(sorted []float64, p float64) float64 {
	return computePercentile(sorted, p)
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	// Index for percentile (0-based, continuous)
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	// Linear interpolation
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
