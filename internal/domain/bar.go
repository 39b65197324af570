package domain

import "time"

// Granularity identifies the sampling interval of a bar series.
type Granularity string

const (
	GranularityMinute Granularity = "MINUTE"
	GranularityDaily  Granularity = "DAILY"
)

// String returns the string representation of Granularity.
func (g Granularity) String() string {
	return string(g)
}

// IsValid checks if the granularity is a valid value.
func (g Granularity) IsValid() bool {
	return g == GranularityMinute || g == GranularityDaily
}

// Bar is one OHLCV observation. Corresponds to the bars_minute and
// bars_daily tables in ClickHouse.
// Well-formed input satisfies high >= max(open, close) and
// low <= min(open, close); the engine assumes this from the loader and
// does not enforce it.
type Bar struct {
	Symbol string    // instrument identifier
	Time   time.Time // time-zone-aware bar timestamp
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64 // non-negative
}

// Date returns the calendar date of the bar in its own location.
func (b Bar) Date() Date {
	return DateOf(b.Time)
}

// PctChange returns the intra-bar percentage change (close-open)/open.
// The caller is expected to have screened zero opens.
func (b Bar) PctChange() float64 {
	return (b.Close - b.Open) / b.Open
}

// Range returns the intra-bar price range high-low.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Series is a time-ordered sequence of bars for one instrument at one
// granularity. Transformations return a new Series; a Series is never
// mutated in place once handed to the engine.
type Series []Bar

// Dates returns the distinct calendar dates present in the series, in
// first-seen order.
func (s Series) Dates() []Date {
	seen := make(map[Date]struct{}, len(s)/300+1)
	var dates []Date
	for _, b := range s {
		d := b.Date()
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	return dates
}

// FilterDates returns the subset of bars whose calendar date is in keep.
func (s Series) FilterDates(keep map[Date]struct{}) Series {
	out := make(Series, 0, len(s))
	for _, b := range s {
		if _, ok := keep[b.Date()]; ok {
			out = append(out, b)
		}
	}
	return out
}
