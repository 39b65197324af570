package stats

import (
	"fmt"
	"math"
)

// Column is one named numeric series entering a correlation matrix.
type Column struct {
	Label  string
	Values []float64
}

// CorrelationMatrix holds pairwise Pearson correlations for a set of
// equally long columns. Values[i][j] is the correlation between
// Labels[i] and Labels[j].
type CorrelationMatrix struct {
	Labels []string
	Values [][]float64
}

// Correlate computes the Pearson correlation matrix over the given
// columns. All columns must have the same length. Pairs involving a
// zero-variance column are reported as NaN.
func Correlate(columns []Column) (CorrelationMatrix, error) {
	n := len(columns)
	if n == 0 {
		return CorrelationMatrix{}, nil
	}

	length := len(columns[0].Values)
	for _, c := range columns[1:] {
		if len(c.Values) != length {
			return CorrelationMatrix{}, fmt.Errorf("column %q has %d values, expected %d", c.Label, len(c.Values), length)
		}
	}

	labels := make([]string, n)
	means := make([]float64, n)
	for i, c := range columns {
		labels[i] = c.Label
		means[i] = computeMean(c.Values)
	}

	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		for j := range values[i] {
			values[i][j] = pearson(columns[i].Values, columns[j].Values, means[i], means[j])
		}
	}

	return CorrelationMatrix{Labels: labels, Values: values}, nil
}

// pearson computes the correlation coefficient between two series with
// precomputed means.
func pearson(xs, ys []float64, meanX, meanY float64) float64 {
	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}
