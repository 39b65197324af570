package domain

// VolumeSMAWindow is the trailing window used for the mean-volume
// baseline behind relative-volume filters.
const VolumeSMAWindow = 10

// DailyMetrics holds per-trading-date fields derived from the daily
// series. Looked up by date when joining previous-day conditions onto
// minute rows.
type DailyMetrics struct {
	Date         Date
	Open         float64
	Close        float64
	High         float64
	Low          float64
	Volume       int64
	VolumeSMA10  float64 // trailing mean volume, min one period
	DayReturnPct float64 // (close-open)/open * 100
}

// DeriveDailyMetrics computes per-date metrics from a daily series.
// The input must be in time order; the trailing volume mean uses up to
// VolumeSMAWindow periods and falls back to whatever history exists.
func DeriveDailyMetrics(daily Series) map[Date]DailyMetrics {
	out := make(map[Date]DailyMetrics, len(daily))
	for i, b := range daily {
		start := i - VolumeSMAWindow + 1
		if start < 0 {
			start = 0
		}
		var volSum float64
		for _, prev := range daily[start : i+1] {
			volSum += float64(prev.Volume)
		}
		sma := volSum / float64(i+1-start)

		var ret float64
		if b.Open != 0 {
			ret = (b.Close - b.Open) / b.Open * 100
		}

		out[b.Date()] = DailyMetrics{
			Date:         b.Date(),
			Open:         b.Open,
			Close:        b.Close,
			High:         b.High,
			Low:          b.Low,
			Volume:       b.Volume,
			VolumeSMA10:  sma,
			DayReturnPct: ret,
		}
	}
	return out
}

// RelativeVolume returns volume divided by the trailing mean volume.
// Returns 0 when the baseline is zero.
func (m DailyMetrics) RelativeVolume() float64 {
	if m.VolumeSMA10 == 0 {
		return 0
	}
	return float64(m.Volume) / m.VolumeSMA10
}
