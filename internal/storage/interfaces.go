package storage

import (
	"context"
	"time"

	"intraday-almanac/internal/domain"
)

// BarStore provides access to OHLCV bar storage at minute and daily
// granularity.
type BarStore interface {
	// InsertBulk adds multiple bars of one granularity. Fails the entire
	// batch on duplicate (symbol, granularity, time).
	InsertBulk(ctx context.Context, g domain.Granularity, bars []domain.Bar) error

	// GetBySymbol retrieves all bars for a symbol at a granularity,
	// ordered by time ASC.
	GetBySymbol(ctx context.Context, symbol string, g domain.Granularity) (domain.Series, error)

	// GetByTimeRange retrieves bars for a symbol within [start, end]
	// (inclusive), ordered by time ASC.
	GetByTimeRange(ctx context.Context, symbol string, g domain.Granularity, start, end time.Time) (domain.Series, error)
}

// TradingDayStore provides access to the trading-calendar reference
// data.
type TradingDayStore interface {
	// InsertBulk adds trading days. Fails the entire batch on duplicate.
	InsertBulk(ctx context.Context, dates []domain.Date) error

	// Previous returns the last trading day strictly before d.
	// Returns ErrNotFound when no earlier trading day is known.
	Previous(ctx context.Context, d domain.Date) (domain.Date, error)

	// Next returns the first trading day strictly after d.
	// Returns ErrNotFound when no later trading day is known.
	Next(ctx context.Context, d domain.Date) (domain.Date, error)

	// GetRange retrieves trading days within [start, end] (inclusive),
	// ordered ASC.
	GetRange(ctx context.Context, start, end domain.Date) ([]domain.Date, error)
}

// EventStore provides access to the economic-event reference data.
type EventStore interface {
	// InsertBulk adds dates to one event calendar. Fails the entire
	// batch on duplicate. Returns ErrUnknownEventType for an
	// unrecognized event type.
	InsertBulk(ctx context.Context, eventType domain.EventType, dates []domain.Date) error

	// EventDates returns the set of dates on which the event occurred.
	// Returns ErrUnknownEventType for an unrecognized event type.
	EventDates(ctx context.Context, eventType domain.EventType) (map[domain.Date]struct{}, error)

	// AllMajorEventDates returns the union of every event calendar.
	AllMajorEventDates(ctx context.Context) (map[domain.Date]struct{}, error)
}
