package stats

import "sort"

// RollingStats holds trailing-window statistics aligned with the input
// series. Every position is populated from whatever history exists
// (minimum one period).
type RollingStats struct {
	Mean   []float64
	Std    []float64
	Min    []float64
	Max    []float64
	Median []float64
}

// Rolling computes trailing-window statistics over a numeric series.
// window must be positive; Std uses the sample formula and reports 0
// until two observations are available.
func Rolling(series []float64, window int) RollingStats {
	n := len(series)
	out := RollingStats{
		Mean:   make([]float64, n),
		Std:    make([]float64, n),
		Min:    make([]float64, n),
		Max:    make([]float64, n),
		Median: make([]float64, n),
	}

	for i := 0; i < n; i++ {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		win := series[start : i+1]

		mean := computeMean(win)
		out.Mean[i] = mean
		out.Std[i] = computeStddev(win, mean)

		min, max := win[0], win[0]
		for _, v := range win[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		out.Min[i] = min
		out.Max[i] = max

		sorted := make([]float64, len(win))
		copy(sorted, win)
		sort.Float64s(sorted)
		out.Median[i] = computePercentile(sorted, 0.50)
	}

	return out
}
