// Package filtering narrows a minute series to the trading days that
// satisfy a conjunction of named predicates: weekday membership,
// previous-day behavior, relative volume, economic-event membership,
// and outlier trimming.
package filtering

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"intraday-almanac/internal/calendar"
	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/stats"
)

// Default trim quantiles for the trim_extremes filter.
const (
	DefaultTrimLower = 0.05
	DefaultTrimUpper = 0.95
)

// EventCatalog answers economic-event date queries. Satisfied by
// storage.EventStore implementations.
type EventCatalog interface {
	EventDates(ctx context.Context, eventType domain.EventType) (map[domain.Date]struct{}, error)
	AllMajorEventDates(ctx context.Context) (map[domain.Date]struct{}, error)
}

// Params carries the thresholds that parameterize threshold filters.
// Nil means "no threshold supplied", which disables the dependent
// filters; a zero threshold is a real threshold.
type Params struct {
	Filters []domain.FilterKind

	// VolThreshold parameterizes relvol_gt / relvol_lt.
	VolThreshold *float64

	// PctThreshold parameterizes prev_pct_pos / prev_pct_neg.
	PctThreshold *float64

	// Trim quantiles for trim_extremes. Zero values mean the defaults
	// (0.05 / 0.95).
	TrimLower float64
	TrimUpper float64
}

func (p Params) has(kind domain.FilterKind) bool {
	for _, k := range p.Filters {
		if k == kind {
			return true
		}
	}
	return false
}

func (p Params) trimQuantiles() (float64, float64) {
	lower, upper := p.TrimLower, p.TrimUpper
	if lower == 0 && upper == 0 {
		return DefaultTrimLower, DefaultTrimUpper
	}
	return lower, upper
}

// Pipeline evaluates conjunctive day filters over minute series.
type Pipeline struct {
	cal    calendar.Calendar
	events EventCatalog
	log    zerolog.Logger
}

// NewPipeline creates a filter pipeline over the given calendar and
// event catalog.
func NewPipeline(cal calendar.Calendar, events EventCatalog, log zerolog.Logger) *Pipeline {
	return &Pipeline{cal: calendar.NewMemo(cal), events: events, log: log}
}

// prevJoin is the previous-day metrics attached to every row of one
// analysis date.
type prevJoin struct {
	date domain.Date
	prev domain.DailyMetrics
}

// Apply returns the subset of minute rows whose calendar date satisfies
// the conjunction of all requested filters. Rows whose previous trading
// day has no daily metrics are dropped unconditionally.
func (p *Pipeline) Apply(ctx context.Context, minute, daily domain.Series, params Params) (domain.Series, error) {
	metrics := domain.DeriveDailyMetrics(daily)

	// Previous-day join: one calendar lookup per distinct date.
	joined := make(map[domain.Date]prevJoin)
	for _, d := range minute.Dates() {
		prevDate, err := p.cal.PreviousTradingDay(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("previous trading day for %s: %w", d, err)
		}
		prev, ok := metrics[prevDate]
		if !ok {
			continue // no previous-day history, hard drop
		}
		joined[d] = prevJoin{date: d, prev: prev}
	}

	keep := make(map[domain.Date]struct{}, len(joined))
	for d := range joined {
		keep[d] = struct{}{}
	}

	if err := p.applyWeekdays(keep, params); err != nil {
		return nil, err
	}
	if err := p.applyEventFilters(ctx, keep, params); err != nil {
		return nil, err
	}
	p.applyPrevDayFilters(keep, joined, params)

	out := minute.FilterDates(keep)

	if params.has(domain.FilterTrimExtremes) {
		lower, upper := params.trimQuantiles()
		out = TrimExtremes(out, lower, upper)
	}

	return out, nil
}

// applyWeekdays restricts keep to the requested weekdays. Requesting
// the complete Monday-Friday set is a no-op.
func (p *Pipeline) applyWeekdays(keep map[domain.Date]struct{}, params Params) error {
	requested := make(map[time.Weekday]struct{})
	for _, k := range params.Filters {
		if wd, ok := k.Weekday(); ok {
			requested[wd] = struct{}{}
		}
	}
	if len(requested) == 0 || len(requested) == 5 {
		return nil
	}

	for d := range keep {
		if _, ok := requested[d.Weekday()]; !ok {
			delete(keep, d)
		}
	}
	return nil
}

// applyEventFilters restricts keep by economic-event membership:
// single-event days, FOMC weeks, and the all-events union.
func (p *Pipeline) applyEventFilters(ctx context.Context, keep map[domain.Date]struct{}, params Params) error {
	for _, k := range params.Filters {
		eventType, ok := k.EventType()
		if !ok {
			continue
		}
		dates, err := p.events.EventDates(ctx, eventType)
		if err != nil {
			return fmt.Errorf("event dates for %s: %w", eventType, err)
		}
		intersect(keep, dates)
	}

	if params.has(domain.FilterFOMCWeek) {
		fomc, err := p.events.EventDates(ctx, domain.EventFOMC)
		if err != nil {
			return fmt.Errorf("event dates for %s: %w", domain.EventFOMC, err)
		}
		if len(fomc) == 0 {
			p.log.Warn().Msg("fomc_week filter requested but no FOMC dates are known, filter not applied")
		} else {
			weeks := make(map[domain.Date]struct{}, len(fomc))
			for d := range fomc {
				weeks[calendar.WeekStart(d)] = struct{}{}
			}
			for d := range keep {
				if _, ok := weeks[calendar.WeekStart(d)]; !ok {
					delete(keep, d)
				}
			}
		}
	}

	if params.has(domain.FilterMajorEventDay) {
		major, err := p.events.AllMajorEventDates(ctx)
		if err != nil {
			return fmt.Errorf("all major event dates: %w", err)
		}
		intersect(keep, major)
	}

	return nil
}

// applyPrevDayFilters restricts keep by previous-day direction,
// magnitude, and relative volume. Contradictory direction or magnitude
// pairs are warned about and still applied conjunctively, yielding an
// empty result.
func (p *Pipeline) applyPrevDayFilters(keep map[domain.Date]struct{}, joined map[domain.Date]prevJoin, params Params) {
	prevPos := params.has(domain.FilterPrevPos)
	prevNeg := params.has(domain.FilterPrevNeg)
	if prevPos && prevNeg {
		p.log.Warn().Msg("prev_pos and prev_neg are both active with AND logic, these are mutually exclusive and the result will be empty")
	}

	pctPos := params.has(domain.FilterPrevPctPos) && params.PctThreshold != nil
	pctNeg := params.has(domain.FilterPrevPctNeg) && params.PctThreshold != nil
	if pctPos && pctNeg {
		p.log.Warn().Msg("prev_pct_pos and prev_pct_neg are both active with AND logic at the same threshold, these are mutually exclusive and the result will be empty")
	}

	relGT := params.has(domain.FilterRelVolGT) && params.VolThreshold != nil
	relLT := params.has(domain.FilterRelVolLT) && params.VolThreshold != nil

	for d := range keep {
		prev := joined[d].prev

		if prevPos && !(prev.Close > prev.Open) {
			delete(keep, d)
			continue
		}
		if prevNeg && !(prev.Close < prev.Open) {
			delete(keep, d)
			continue
		}
		if pctPos && !(prev.DayReturnPct >= *params.PctThreshold) {
			delete(keep, d)
			continue
		}
		if pctNeg && !(prev.DayReturnPct <= -*params.PctThreshold) {
			delete(keep, d)
			continue
		}
		if relGT && !(prev.RelativeVolume() > *params.VolThreshold) {
			delete(keep, d)
			continue
		}
		if relLT && !(prev.RelativeVolume() < *params.VolThreshold) {
			delete(keep, d)
			continue
		}
	}
}

// TrimExtremes removes rows whose percentage change or range falls
// outside the [lower, upper] quantile band computed over the input
// rows. If trimming would remove every row, the input is returned
// unchanged.
func TrimExtremes(s domain.Series, lower, upper float64) domain.Series {
	if len(s) == 0 {
		return s
	}

	pcts := make([]float64, len(s))
	rngs := make([]float64, len(s))
	for i, b := range s {
		pcts[i] = b.PctChange()
		rngs[i] = b.Range()
	}

	sortedPcts := append([]float64(nil), pcts...)
	sortedRngs := append([]float64(nil), rngs...)
	sort.Float64s(sortedPcts)
	sort.Float64s(sortedRngs)

	lowPct := stats.Percentile(sortedPcts, lower)
	highPct := stats.Percentile(sortedPcts, upper)
	lowRng := stats.Percentile(sortedRngs, lower)
	highRng := stats.Percentile(sortedRngs, upper)

	trimmed := make(domain.Series, 0, len(s))
	for i, b := range s {
		if pcts[i] >= lowPct && pcts[i] <= highPct && rngs[i] >= lowRng && rngs[i] <= highRng {
			trimmed = append(trimmed, b)
		}
	}

	if len(trimmed) == 0 {
		return s
	}
	return trimmed
}

// intersect removes from keep every date not present in allowed.
func intersect(keep map[domain.Date]struct{}, allowed map[domain.Date]struct{}) {
	for d := range keep {
		if _, ok := allowed[d]; !ok {
			delete(keep, d)
		}
	}
}
