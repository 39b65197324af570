package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestComputePercentile_LinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	// idx = 0.5 * 3 = 1.5 → between 2 and 3
	if got := computePercentile(sorted, 0.50); !almostEqual(got, 2.5, 1e-12) {
		t.Errorf("expected median 2.5, got %f", got)
	}
	if got := computePercentile(sorted, 0.0); got != 1 {
		t.Errorf("expected p0 = 1, got %f", got)
	}
	if got := computePercentile(sorted, 1.0); got != 4 {
		t.Errorf("expected p100 = 4, got %f", got)
	}
}

func TestComputePercentile_Degenerate(t *testing.T) {
	if got := computePercentile(nil, 0.5); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}
	if got := computePercentile([]float64{7}, 0.9); got != 7 {
		t.Errorf("expected single value passthrough, got %f", got)
	}
}

func TestComputeVariance_SampleFormula(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean := computeMean(values)

	// Sum of squared deviations = 32, n-1 = 7
	if got := computeVariance(values, mean); !almostEqual(got, 32.0/7.0, 1e-12) {
		t.Errorf("expected variance %f, got %f", 32.0/7.0, got)
	}
	if got := computeVariance([]float64{5}, 5); got != 0 {
		t.Errorf("expected 0 variance for single observation, got %f", got)
	}
}

func TestComputeMeasures_SmallBucketFallsBackToMean(t *testing.T) {
	// Fewer than 10 observations: trimmed mean and outlier mean must
	// both equal the plain mean.
	values := []float64{1, 2, 3, 100}
	m := computeMeasures(values, DefaultTrimPct)

	mean := computeMean(values)
	if m.TrimmedMean != mean {
		t.Errorf("expected trimmed mean fallback %f, got %f", mean, m.TrimmedMean)
	}
	if m.OutlierMean != mean {
		t.Errorf("expected outlier mean fallback %f, got %f", mean, m.OutlierMean)
	}
}

func TestComputeMeasures_ModeIsMedian(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	m := computeMeasures(values, DefaultTrimPct)

	if m.Mode != m.Median {
		t.Errorf("expected mode to equal median, got mode=%f median=%f", m.Mode, m.Median)
	}
	if m.Median != 6 {
		t.Errorf("expected median 6, got %f", m.Median)
	}
}

func TestComputeTrimmedMean_DiscardsExtremes(t *testing.T) {
	// 1..9 plus one gross outlier. With 5% tails the outlier falls
	// outside the quantile band and must not contribute.
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 1000}
	m := computeMeasures(values, DefaultTrimPct)

	if m.TrimmedMean >= m.Mean {
		t.Errorf("expected trimmed mean %f below raw mean %f", m.TrimmedMean, m.Mean)
	}
	if m.TrimmedMean > 10 {
		t.Errorf("expected outlier excluded from trimmed mean, got %f", m.TrimmedMean)
	}
}

func TestComputeOutlierMean_QuantileMidpoint(t *testing.T) {
	values := make([]float64, 0, 11)
	for i := 0; i <= 10; i++ {
		values = append(values, float64(i))
	}
	m := computeMeasures(values, DefaultTrimPct)

	// q05 = 0.5, q95 = 9.5 → midpoint 5.0
	if !almostEqual(m.OutlierMean, 5.0, 1e-12) {
		t.Errorf("expected outlier mean 5.0, got %f", m.OutlierMean)
	}
}

func TestRolling_MinOnePeriod(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	r := Rolling(series, 3)

	if len(r.Mean) != 5 {
		t.Fatalf("expected aligned output, got %d values", len(r.Mean))
	}
	// First element uses a single observation.
	if r.Mean[0] != 1 || r.Min[0] != 1 || r.Max[0] != 1 || r.Median[0] != 1 {
		t.Errorf("expected first window of size 1, got mean=%f", r.Mean[0])
	}
	if r.Std[0] != 0 {
		t.Errorf("expected zero std with one observation, got %f", r.Std[0])
	}
	// Full window at index 4: {3,4,5}
	if !almostEqual(r.Mean[4], 4, 1e-12) {
		t.Errorf("expected rolling mean 4, got %f", r.Mean[4])
	}
	if r.Min[4] != 3 || r.Max[4] != 5 {
		t.Errorf("expected window min 3 / max 5, got %f / %f", r.Min[4], r.Max[4])
	}
}

func TestCorrelate_PerfectAndInverse(t *testing.T) {
	matrix, err := Correlate([]Column{
		{Label: "a", Values: []float64{1, 2, 3, 4}},
		{Label: "b", Values: []float64{2, 4, 6, 8}},
		{Label: "c", Values: []float64{4, 3, 2, 1}},
	})
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}

	if !almostEqual(matrix.Values[0][1], 1.0, 1e-12) {
		t.Errorf("expected corr(a,b) = 1, got %f", matrix.Values[0][1])
	}
	if !almostEqual(matrix.Values[0][2], -1.0, 1e-12) {
		t.Errorf("expected corr(a,c) = -1, got %f", matrix.Values[0][2])
	}
	if !almostEqual(matrix.Values[2][2], 1.0, 1e-12) {
		t.Errorf("expected unit diagonal, got %f", matrix.Values[2][2])
	}
}

func TestCorrelate_ZeroVarianceIsNaN(t *testing.T) {
	matrix, err := Correlate([]Column{
		{Label: "flat", Values: []float64{5, 5, 5}},
		{Label: "x", Values: []float64{1, 2, 3}},
	})
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}
	if !math.IsNaN(matrix.Values[0][1]) {
		t.Errorf("expected NaN for zero-variance column, got %f", matrix.Values[0][1])
	}
}

func TestCorrelate_LengthMismatch(t *testing.T) {
	_, err := Correlate([]Column{
		{Label: "a", Values: []float64{1, 2}},
		{Label: "b", Values: []float64{1}},
	})
	if err == nil {
		t.Error("expected error for mismatched column lengths")
	}
}
