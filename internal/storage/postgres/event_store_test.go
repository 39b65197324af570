package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/storage"
)

func TestEventStore_InsertBulkAndEventDates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventStore(pool)
	ctx := context.Background()

	fomc := []domain.Date{
		mustDate(t, "2024-11-07"),
		mustDate(t, "2024-12-18"),
	}
	require.NoError(t, store.InsertBulk(ctx, domain.EventFOMC, fomc))

	dates, err := store.EventDates(ctx, domain.EventFOMC)
	require.NoError(t, err)
	assert.Len(t, dates, 2)
	assert.Contains(t, dates, mustDate(t, "2024-12-18"))

	// Other calendars stay empty.
	cpi, err := store.EventDates(ctx, domain.EventCPI)
	require.NoError(t, err)
	assert.Empty(t, cpi)
}

func TestEventStore_UnknownEventType(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventStore(pool)
	ctx := context.Background()

	_, err := store.EventDates(ctx, domain.EventType("HALVING"))
	assert.ErrorIs(t, err, storage.ErrUnknownEventType)

	err = store.InsertBulk(ctx, domain.EventType("HALVING"), []domain.Date{mustDate(t, "2024-04-20")})
	assert.ErrorIs(t, err, storage.ErrUnknownEventType)
}

func TestEventStore_AllMajorEventDates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventStore(pool)
	ctx := context.Background()

	shared := mustDate(t, "2024-12-18")
	require.NoError(t, store.InsertBulk(ctx, domain.EventFOMC, []domain.Date{shared}))
	require.NoError(t, store.InsertBulk(ctx, domain.EventCPI, []domain.Date{shared, mustDate(t, "2024-12-11")}))

	union, err := store.AllMajorEventDates(ctx)
	require.NoError(t, err)
	assert.Len(t, union, 2)
}

func TestEventStore_DuplicatePerCalendar(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventStore(pool)
	ctx := context.Background()

	d := mustDate(t, "2024-12-18")
	require.NoError(t, store.InsertBulk(ctx, domain.EventFOMC, []domain.Date{d}))

	err := store.InsertBulk(ctx, domain.EventFOMC, []domain.Date{d})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same date under a different calendar is a distinct key.
	require.NoError(t, store.InsertBulk(ctx, domain.EventCPI, []domain.Date{d}))
}
