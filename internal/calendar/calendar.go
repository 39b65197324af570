// Package calendar provides the trading-calendar adapter surface used
// by the filter and zone engines, plus date helpers shared by the
// week-based filters.
package calendar

import (
	"context"
	"sync"
	"time"

	"intraday-almanac/internal/domain"
)

// Calendar answers previous/next trading day queries. Implementations
// must be total over the dates present in input data; behavior outside
// that range is implementation-defined.
type Calendar interface {
	// PreviousTradingDay returns the last trading day strictly before d.
	PreviousTradingDay(ctx context.Context, d domain.Date) (domain.Date, error)

	// NextTradingDay returns the first trading day strictly after d.
	NextTradingDay(ctx context.Context, d domain.Date) (domain.Date, error)
}

// Weekdays is a calendar that treats every Monday-Friday as a trading
// day. Used as the fallback when no reference calendar is loaded; it
// ignores exchange holidays.
type Weekdays struct{}

// PreviousTradingDay returns the previous weekday.
func (Weekdays) PreviousTradingDay(_ context.Context, d domain.Date) (domain.Date, error) {
	prev := d.AddDays(-1)
	for prev.Weekday() == time.Saturday || prev.Weekday() == time.Sunday {
		prev = prev.AddDays(-1)
	}
	return prev, nil
}

// NextTradingDay returns the next weekday.
func (Weekdays) NextTradingDay(_ context.Context, d domain.Date) (domain.Date, error) {
	next := d.AddDays(1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDays(1)
	}
	return next, nil
}

// Memo caches answers from an inner calendar so each date is resolved
// at most once per run. The cache is mutex-guarded because the inner
// calendar is not assumed to be safe for concurrent use.
type Memo struct {
	inner Calendar

	mu   sync.Mutex
	prev map[domain.Date]domain.Date
	next map[domain.Date]domain.Date
}

// NewMemo wraps inner with a per-run memoizing cache.
func NewMemo(inner Calendar) *Memo {
	return &Memo{
		inner: inner,
		prev:  make(map[domain.Date]domain.Date),
		next:  make(map[domain.Date]domain.Date),
	}
}

// PreviousTradingDay resolves via the cache, falling through to the
// inner calendar on first sight of d.
func (m *Memo) PreviousTradingDay(ctx context.Context, d domain.Date) (domain.Date, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.prev[d]; ok {
		return cached, nil
	}
	resolved, err := m.inner.PreviousTradingDay(ctx, d)
	if err != nil {
		return domain.Date{}, err
	}
	m.prev[d] = resolved
	return resolved, nil
}

// NextTradingDay resolves via the cache, falling through to the inner
// calendar on first sight of d.
func (m *Memo) NextTradingDay(ctx context.Context, d domain.Date) (domain.Date, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.next[d]; ok {
		return cached, nil
	}
	resolved, err := m.inner.NextTradingDay(ctx, d)
	if err != nil {
		return domain.Date{}, err
	}
	m.next[d] = resolved
	return resolved, nil
}

// WeekStart returns the Monday of the week containing d. Every
// week-based filter goes through this so week membership is computed
// one way only.
func WeekStart(d domain.Date) domain.Date {
	daysSinceMonday := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-daysSinceMonday)
}

var (
	_ Calendar = Weekdays{}
	_ Calendar = (*Memo)(nil)
)
