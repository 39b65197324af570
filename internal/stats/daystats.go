package stats

import (
	"sort"

	"intraday-almanac/internal/domain"
)

// Distribution summarizes one per-day metric across the filtered days.
type Distribution struct {
	Mean   float64
	Median float64
	Std    float64
	Min    float64
	Max    float64
}

// DaySummary reports day-level statistics over the dates present in a
// filtered minute series. Optional fields stay nil when the underlying
// observations are absent (e.g., no bars in the first trading hour).
type DaySummary struct {
	NumDays int

	CloseOpenPct Distribution
	RangePct     Distribution
	HighOpenPct  Distribution
	OpenLowPct   Distribution

	FirstHourHighOpenPct *Distribution
	FirstHourOpenLowPct  *Distribution

	GreenDays int
	RedDays   int
	GreenPct  float64

	AvgVolume    float64
	MedianVolume float64

	// Fractional hours since midnight at which the day's high and low
	// printed.
	AvgHODHour    *float64
	MedianHODHour *float64
	AvgLODHour    *float64
	MedianLODHour *float64
}

// FilteredDaySummary computes day-level statistics over only the dates
// present in the filtered minute series, joined with the daily series.
// Returns nil when either side contributes no data.
func FilteredDaySummary(filteredMinute, daily domain.Series) *DaySummary {
	if len(filteredMinute) == 0 {
		return nil
	}

	dates := filteredMinute.Dates()
	dateSet := make(map[domain.Date]struct{}, len(dates))
	for _, d := range dates {
		dateSet[d] = struct{}{}
	}

	dailyByDate := make(map[domain.Date]domain.Bar, len(dates))
	var dailyRows []domain.Bar
	for _, b := range daily {
		if _, ok := dateSet[b.Date()]; ok {
			dailyByDate[b.Date()] = b
			dailyRows = append(dailyRows, b)
		}
	}
	if len(dailyRows) == 0 {
		return nil
	}

	out := &DaySummary{NumDays: len(dates)}

	var closeOpen, rangePct, highOpen, openLow, volumes []float64
	for _, b := range dailyRows {
		if b.Open == 0 {
			continue
		}
		closeOpen = append(closeOpen, (b.Close-b.Open)/b.Open*100)
		rangePct = append(rangePct, (b.High-b.Low)/b.Open*100)
		highOpen = append(highOpen, (b.High-b.Open)/b.Open*100)
		openLow = append(openLow, (b.Open-b.Low)/b.Open*100)
		volumes = append(volumes, float64(b.Volume))

		if b.Close > b.Open {
			out.GreenDays++
		} else if b.Close < b.Open {
			out.RedDays++
		}
	}

	out.CloseOpenPct = summarize(closeOpen)
	out.RangePct = summarize(rangePct)
	out.HighOpenPct = summarize(highOpen)
	out.OpenLowPct = summarize(openLow)
	if out.NumDays > 0 {
		out.GreenPct = float64(out.GreenDays) / float64(out.NumDays) * 100
	}
	if len(volumes) > 0 {
		out.AvgVolume = computeMean(volumes)
		sorted := append([]float64(nil), volumes...)
		sort.Float64s(sorted)
		out.MedianVolume = computePercentile(sorted, 0.50)
	}

	firstHourStats(filteredMinute, dates, dailyByDate, out)
	extremeTimeStats(filteredMinute, dates, out)

	return out
}

// firstHourStats computes the 09:30-10:30 high/low excursions relative
// to the day's open for each filtered date that has first-hour bars.
func firstHourStats(minute domain.Series, dates []domain.Date, dailyByDate map[domain.Date]domain.Bar, out *DaySummary) {
	byDate := groupByDate(minute)

	var highOpen, openLow []float64
	for _, d := range dates {
		dayBar, ok := dailyByDate[d]
		if !ok || dayBar.Open == 0 {
			continue
		}

		var high, low float64
		found := false
		for _, b := range byDate[d] {
			h, m := b.Time.Hour(), b.Time.Minute()
			inFirstHour := (h == 9 && m >= 30) || (h == 10 && m < 30)
			if !inFirstHour {
				continue
			}
			if !found || b.High > high {
				high = b.High
			}
			if !found || b.Low < low {
				low = b.Low
			}
			found = true
		}
		if !found {
			continue
		}

		highOpen = append(highOpen, (high-dayBar.Open)/dayBar.Open*100)
		openLow = append(openLow, (dayBar.Open-low)/dayBar.Open*100)
	}

	if len(highOpen) > 0 {
		ho := summarize(highOpen)
		ol := summarize(openLow)
		out.FirstHourHighOpenPct = &ho
		out.FirstHourOpenLowPct = &ol
	}
}

// extremeTimeStats records when each day's high and low printed, as
// fractional hours since midnight. Ties resolve to the earliest bar.
func extremeTimeStats(minute domain.Series, dates []domain.Date, out *DaySummary) {
	byDate := groupByDate(minute)

	var hodHours, lodHours []float64
	for _, d := range dates {
		bars := byDate[d]
		if len(bars) == 0 {
			continue
		}

		hod, lod := bars[0], bars[0]
		for _, b := range bars[1:] {
			if b.High > hod.High {
				hod = b
			}
			if b.Low < lod.Low {
				lod = b
			}
		}
		hodHours = append(hodHours, float64(hod.Time.Hour())+float64(hod.Time.Minute())/60)
		lodHours = append(lodHours, float64(lod.Time.Hour())+float64(lod.Time.Minute())/60)
	}

	if len(hodHours) > 0 {
		out.AvgHODHour = ptrFloat(computeMean(hodHours))
		out.MedianHODHour = ptrFloat(medianOf(hodHours))
		out.AvgLODHour = ptrFloat(computeMean(lodHours))
		out.MedianLODHour = ptrFloat(medianOf(lodHours))
	}
}

func groupByDate(s domain.Series) map[domain.Date][]domain.Bar {
	out := make(map[domain.Date][]domain.Bar)
	for _, b := range s {
		out[b.Date()] = append(out[b.Date()], b)
	}
	return out
}

func summarize(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mean := computeMean(values)
	return Distribution{
		Mean:   mean,
		Median: computePercentile(sorted, 0.50),
		Std:    computeStddev(values, mean),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return computePercentile(sorted, 0.50)
}

func ptrFloat(v float64) *float64 {
	return &v
}
