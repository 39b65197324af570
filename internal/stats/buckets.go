package stats

import (
	"fmt"
	"math"
	"time"

	"intraday-almanac/internal/domain"
)

// Bucket holds the six measures for both tracked metrics over one group
// of bars.
type Bucket struct {
	Label     string
	Count     int
	PctChange Measures
	Range     Measures
}

// weekdayLabels is the canonical Monday-first ordering used for weekday
// buckets.
var weekdayLabels = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// metricPair carries the two per-bar metrics accumulated into a bucket.
type metricPair struct {
	pctChg []float64
	rng    []float64
}

// accumulate appends the bar's metrics, skipping bars whose percentage
// change cannot be computed (zero or missing open).
func (m *metricPair) accumulate(b domain.Bar) {
	pct := b.PctChange()
	if b.Open == 0 || math.IsNaN(pct) || math.IsInf(pct, 0) {
		return
	}
	m.pctChg = append(m.pctChg, pct)
	m.rng = append(m.rng, b.Range())
}

func (m *metricPair) bucket(label string, trimPct float64) Bucket {
	return Bucket{
		Label:     label,
		Count:     len(m.pctChg),
		PctChange: computeMeasures(m.pctChg, trimPct),
		Range:     computeMeasures(m.rng, trimPct),
	}
}

// Hourly groups a minute series by hour of day (0-23) and computes the
// six measures per hour for percentage change and range. Hours without
// observations are omitted.
func Hourly(s domain.Series, trimPct float64) []Bucket {
	var groups [24]metricPair
	for _, b := range s {
		groups[b.Time.Hour()].accumulate(b)
	}

	var out []Bucket
	for hour := 0; hour < 24; hour++ {
		if len(groups[hour].pctChg) == 0 {
			continue
		}
		out = append(out, groups[hour].bucket(fmt.Sprintf("%02d:00", hour), trimPct))
	}
	return out
}

// MinuteOfHour groups the bars of one hour by minute (0-59) and
// computes the six measures per minute. Returns nil when the hour has
// no observations.
func MinuteOfHour(s domain.Series, hour int, trimPct float64) []Bucket {
	var groups [60]metricPair
	for _, b := range s {
		if b.Time.Hour() != hour {
			continue
		}
		groups[b.Time.Minute()].accumulate(b)
	}

	var out []Bucket
	for minute := 0; minute < 60; minute++ {
		if len(groups[minute].pctChg) == 0 {
			continue
		}
		out = append(out, groups[minute].bucket(fmt.Sprintf("%02d:%02d", hour, minute), trimPct))
	}
	return out
}

// ByWeekday groups a series by day of week and computes the six
// measures per weekday. Buckets appear in canonical Monday-to-Sunday
// order; weekdays without observations are omitted.
func ByWeekday(s domain.Series, trimPct float64) []Bucket {
	groups := make(map[time.Weekday]*metricPair, 7)
	for _, b := range s {
		wd := b.Time.Weekday()
		g, ok := groups[wd]
		if !ok {
			g = &metricPair{}
			groups[wd] = g
		}
		g.accumulate(b)
	}

	var out []Bucket
	for _, wd := range weekdayLabels {
		g, ok := groups[wd]
		if !ok || len(g.pctChg) == 0 {
			continue
		}
		out = append(out, g.bucket(wd.String(), trimPct))
	}
	return out
}

// ByMonth groups a series by calendar month and computes the six
// measures per month. Buckets appear in canonical January-to-December
// order; months without observations are omitted.
func ByMonth(s domain.Series, trimPct float64) []Bucket {
	groups := make(map[time.Month]*metricPair, 12)
	for _, b := range s {
		m := b.Time.Month()
		g, ok := groups[m]
		if !ok {
			g = &metricPair{}
			groups[m] = g
		}
		g.accumulate(b)
	}

	var out []Bucket
	for m := time.January; m <= time.December; m++ {
		g, ok := groups[m]
		if !ok || len(g.pctChg) == 0 {
			continue
		}
		out = append(out, g.bucket(m.String(), trimPct))
	}
	return out
}
