package calendar

import (
	"context"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/storage"
)

// Reference answers trading-day queries from the loaded reference
// calendar. Wrap it in a Memo for per-run caching.
type Reference struct {
	store storage.TradingDayStore
}

// NewReference adapts a trading-day store to the Calendar interface.
func NewReference(store storage.TradingDayStore) *Reference {
	return &Reference{store: store}
}

var _ Calendar = (*Reference)(nil)

// PreviousTradingDay returns the last loaded trading day strictly
// before d.
func (r *Reference) PreviousTradingDay(ctx context.Context, d domain.Date) (domain.Date, error) {
	return r.store.Previous(ctx, d)
}

// NextTradingDay returns the first loaded trading day strictly after d.
func (r *Reference) NextTradingDay(ctx context.Context, d domain.Date) (domain.Date, error) {
	return r.store.Next(ctx, d)
}
