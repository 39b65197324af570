package stats

import (
	"fmt"
	"math"
	"sort"

	"intraday-almanac/internal/domain"
)

// VolCurvePoint summarizes the absolute per-bar returns observed at one
// exact time of day across all days in the input.
type VolCurvePoint struct {
	TimeOfDay string // HH:MM
	Mean      float64
	Q25       float64
	Q75       float64
	Count     int
}

// IntradayVolCurve groups absolute percentage changes by exact
// time-of-day and reports mean, interquartile bounds, and count per
// slot, ordered by time.
func IntradayVolCurve(s domain.Series) []VolCurvePoint {
	type slot struct{ hour, minute int }
	groups := make(map[slot][]float64)
	for _, b := range s {
		pct := b.PctChange()
		if b.Open == 0 || math.IsNaN(pct) || math.IsInf(pct, 0) {
			continue
		}
		k := slot{b.Time.Hour(), b.Time.Minute()}
		groups[k] = append(groups[k], math.Abs(pct))
	}

	slots := make([]slot, 0, len(groups))
	for k := range groups {
		slots = append(slots, k)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].hour != slots[j].hour {
			return slots[i].hour < slots[j].hour
		}
		return slots[i].minute < slots[j].minute
	})

	out := make([]VolCurvePoint, 0, len(slots))
	for _, k := range slots {
		values := groups[k]
		sorted := make([]float64, len(values))
		copy(sorted, values)
		sort.Float64s(sorted)

		out = append(out, VolCurvePoint{
			TimeOfDay: fmt.Sprintf("%02d:%02d", k.hour, k.minute),
			Mean:      computeMean(values),
			Q25:       computePercentile(sorted, 0.25),
			Q75:       computePercentile(sorted, 0.75),
			Count:     len(values),
		})
	}
	return out
}
