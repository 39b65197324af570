// Package ingestion loads bar history and reference data into the
// stores: CSV backfill for historical bars and calendar/event seeds,
// plus a WebSocket feed for live bars.
package ingestion

import (
	"context"
	"time"

	"intraday-almanac/internal/domain"
)

// BarSource provides historical bars from an external source.
type BarSource interface {
	// Fetch returns bars for a symbol within time range [from, to]
	// (inclusive). Bars may be unordered; the Runner sorts before
	// inserting.
	Fetch(ctx context.Context, symbol string, from, to time.Time) ([]domain.Bar, error)
}

// BarFeed provides a live stream of bars.
type BarFeed interface {
	// Subscribe starts streaming bars for a symbol. The channel closes
	// when the feed shuts down.
	Subscribe(ctx context.Context, symbol string) (<-chan domain.Bar, error)
	Close() error
}
