package zone

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"intraday-almanac/internal/domain"
)

// SessionCutoverHour is the local hour before which a timestamp is
// attributed to the previous calendar day's session. Globex-style
// overnight trade between midnight and 05:00 belongs to the prior day.
const SessionCutoverHour = 5

// Outcome is the evaluation of one spec against one analysis date.
// HasPct is false for indeterminate dates (no bars in the window, zero
// or non-finite prices), in which case Reason explains why.
type Outcome struct {
	Date      domain.Date
	PctChange float64
	HasPct    bool
	Pass      bool
	Reason    string
}

// SpecResult accumulates the outcomes of one spec across all analysis
// dates.
type SpecResult struct {
	Name     string
	Passed   map[domain.Date]struct{}
	Outcomes []Outcome // ordered by date ASC
}

// Diagnostics reports a full multi-spec application run.
type Diagnostics struct {
	TotalDates int
	Specs      []SpecResult
	Accepted   map[domain.Date]struct{}
}

// Engine evaluates zone filter specs against minute series. Safe for
// concurrent use; it holds no per-run state.
type Engine struct {
	loc     *time.Location
	workers int
}

// NewEngine creates a zone engine. A nil location defaults to
// America/New_York; workers <= 0 defaults to the number of CPUs.
func NewEngine(loc *time.Location, workers int) *Engine {
	if loc == nil {
		loc = defaultLocation()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{loc: loc, workers: workers}
}

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// ComputePctChange resolves the spec's window against the analysis
// date and measures the percentage change from the window's first bar
// open to its last bar close. Indeterminate dates (no bars, zero or
// non-finite prices) return ok=false with a reason; they never fail
// hard, because calendar gaps are expected.
func (e *Engine) ComputePctChange(bars domain.Series, spec *FilterSpec, analysisDate domain.Date) (pct float64, ok bool, reason string) {
	startDate := analysisDate.AddDays(spec.start.DayOffset)
	endDate := analysisDate.AddDays(spec.end.DayOffset)

	start := startDate.Time(spec.start.Hour, spec.start.Minute, e.loc)
	end := endDate.Time(spec.end.Hour, spec.end.Minute, e.loc)
	// A window that crosses midnight resolves its end to the following
	// day, exactly once.
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}

	var first, last domain.Bar
	found := false
	for _, b := range bars {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		if !found || b.Time.Before(first.Time) {
			first = b
		}
		if !found || !b.Time.Before(last.Time) {
			last = b
		}
		found = true
	}
	if !found {
		return 0, false, fmt.Sprintf("no bars in window %s to %s", start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))
	}

	open, close := first.Open, last.Close
	if open == 0 {
		return 0, false, "zero opening price in window"
	}
	if math.IsNaN(open) || math.IsInf(open, 0) || math.IsNaN(close) || math.IsInf(close, 0) {
		return 0, false, "non-finite price in window"
	}

	pct = (close - open) / open * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, false, "non-finite percentage change"
	}
	return pct, true, ""
}

// Apply evaluates every spec against every analysis date in the input
// and keeps the rows of the dates passing ALL specs. An empty spec list
// is the identity: all rows pass with trivial diagnostics.
func (e *Engine) Apply(ctx context.Context, minute domain.Series, specs []*FilterSpec) (domain.Series, *Diagnostics, error) {
	dates := e.sessionDates(minute)

	if len(specs) == 0 {
		accepted := make(map[domain.Date]struct{}, len(dates))
		for _, d := range dates {
			accepted[d] = struct{}{}
		}
		return minute, &Diagnostics{TotalDates: len(dates), Accepted: accepted}, nil
	}

	diag := &Diagnostics{TotalDates: len(dates)}
	for _, spec := range specs {
		result, err := e.evaluateSpec(ctx, minute, spec, dates)
		if err != nil {
			return nil, nil, err
		}
		diag.Specs = append(diag.Specs, result)
	}

	// Fold the per-spec pass sets into their intersection. Intersection
	// is commutative, so spec order never changes the accepted set.
	accepted := make(map[domain.Date]struct{}, len(dates))
	for _, d := range dates {
		accepted[d] = struct{}{}
	}
	for _, result := range diag.Specs {
		for d := range accepted {
			if _, ok := result.Passed[d]; !ok {
				delete(accepted, d)
			}
		}
	}
	diag.Accepted = accepted

	out := make(domain.Series, 0, len(minute))
	for _, b := range minute {
		if _, ok := accepted[e.sessionDate(b.Time)]; ok {
			out = append(out, b)
		}
	}
	return out, diag, nil
}

// evaluateSpec computes one typed outcome per analysis date. Dates are
// independent, so they are fanned out over a bounded worker pool; the
// outcome slice is assembled positionally, not by mutating shared
// state.
func (e *Engine) evaluateSpec(ctx context.Context, bars domain.Series, spec *FilterSpec, dates []domain.Date) (SpecResult, error) {
	outcomes := make([]Outcome, len(dates))
	low, high := spec.Range()

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := e.workers
	if workers > len(dates) {
		workers = len(dates)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				d := dates[i]
				pct, ok, reason := e.ComputePctChange(bars, spec, d)
				o := Outcome{Date: d, PctChange: pct, HasPct: ok}
				switch {
				case !ok:
					o.Reason = reason
				case pct < low || pct > high:
					o.Reason = fmt.Sprintf("pct change %.4f%% outside [%.4f%%, %.4f%%]", pct, low, high)
				default:
					o.Pass = true
				}
				outcomes[i] = o
			}
		}()
	}

feed:
	for i := range dates {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return SpecResult{}, err
	}

	result := SpecResult{
		Name:     spec.Name(),
		Passed:   make(map[domain.Date]struct{}),
		Outcomes: outcomes,
	}
	for _, o := range outcomes {
		if o.Pass {
			result.Passed[o.Date] = struct{}{}
		}
	}
	return result, nil
}

// sessionDate maps a timestamp to its trading session's date using the
// 05:00 cutover in the engine's location.
func (e *Engine) sessionDate(t time.Time) domain.Date {
	lt := t.In(e.loc)
	d := domain.DateOf(lt)
	if lt.Hour() < SessionCutoverHour {
		d = d.AddDays(-1)
	}
	return d
}

// sessionDates returns the distinct session dates in the series,
// ordered ASC for deterministic diagnostics.
func (e *Engine) sessionDates(s domain.Series) []domain.Date {
	seen := make(map[domain.Date]struct{})
	var dates []domain.Date
	for _, b := range s {
		d := e.sessionDate(b.Time)
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
