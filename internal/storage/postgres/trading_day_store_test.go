package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/storage"
)

func TestTradingDayStore_InsertBulkAndGetRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradingDayStore(pool)
	ctx := context.Background()

	days := []domain.Date{
		mustDate(t, "2024-12-16"),
		mustDate(t, "2024-12-17"),
		mustDate(t, "2024-12-18"),
		mustDate(t, "2024-12-20"),
	}
	require.NoError(t, store.InsertBulk(ctx, days))

	got, err := store.GetRange(ctx, mustDate(t, "2024-12-16"), mustDate(t, "2024-12-20"))
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Before(got[i]), "expected ascending order")
	}
}

func TestTradingDayStore_PreviousSkipsHoliday(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradingDayStore(pool)
	ctx := context.Background()

	// No 2024-12-19 session.
	days := []domain.Date{
		mustDate(t, "2024-12-18"),
		mustDate(t, "2024-12-20"),
	}
	require.NoError(t, store.InsertBulk(ctx, days))

	prev, err := store.Previous(ctx, mustDate(t, "2024-12-20"))
	require.NoError(t, err)
	assert.Equal(t, mustDate(t, "2024-12-18"), prev)

	next, err := store.Next(ctx, mustDate(t, "2024-12-18"))
	require.NoError(t, err)
	assert.Equal(t, mustDate(t, "2024-12-20"), next)
}

func TestTradingDayStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradingDayStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []domain.Date{mustDate(t, "2024-12-16")}))

	_, err := store.Previous(ctx, mustDate(t, "2024-12-16"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Next(ctx, mustDate(t, "2024-12-16"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradingDayStore_InsertBulkDuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradingDayStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []domain.Date{mustDate(t, "2024-12-17")}))

	// Second batch contains one new day and one duplicate.
	err := store.InsertBulk(ctx, []domain.Date{
		mustDate(t, "2024-12-16"),
		mustDate(t, "2024-12-17"),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// The new day from the failed batch must not have been committed.
	got, err := store.GetRange(ctx, mustDate(t, "2024-12-01"), mustDate(t, "2024-12-31"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
