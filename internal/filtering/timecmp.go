package filtering

import (
	"intraday-almanac/internal/domain"
)

// Clock is a wall-clock minute within a day.
type Clock struct {
	Hour   int
	Minute int
}

// ApplyTimeComparison keeps the days on which the close at time A
// compares to the close at time B as requested (timeA_gt_timeB or
// timeA_lt_timeB). Days missing a bar at either time are dropped. The
// filter is a no-op when neither comparison kind is requested or either
// clock is nil.
func ApplyTimeComparison(s domain.Series, kinds []domain.FilterKind, timeA, timeB *Clock) domain.Series {
	wantGT := hasKind(kinds, domain.FilterTimeAGtTimeB)
	wantLT := hasKind(kinds, domain.FilterTimeALtTimeB)
	if !wantGT && !wantLT {
		return s
	}
	if timeA == nil || timeB == nil {
		return s
	}

	// First bar at each clock per date, mirroring a left join on the
	// earliest match.
	priceA := make(map[domain.Date]float64)
	priceB := make(map[domain.Date]float64)
	for _, b := range s {
		d := b.Date()
		h, m := b.Time.Hour(), b.Time.Minute()
		if h == timeA.Hour && m == timeA.Minute {
			if _, ok := priceA[d]; !ok {
				priceA[d] = b.Close
			}
		}
		if h == timeB.Hour && m == timeB.Minute {
			if _, ok := priceB[d]; !ok {
				priceB[d] = b.Close
			}
		}
	}

	keep := make(map[domain.Date]struct{})
	for d, a := range priceA {
		b, ok := priceB[d]
		if !ok {
			continue
		}
		if wantGT && !(a > b) {
			continue
		}
		if wantLT && !(a < b) {
			continue
		}
		keep[d] = struct{}{}
	}

	return s.FilterDates(keep)
}

func hasKind(kinds []domain.FilterKind, want domain.FilterKind) bool {
	for _, k := range kinds {
		if k == want {
			return true
		}
	}
	return false
}
