package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]domain.Bar // keyed by (symbol, granularity, unix nanos)
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]domain.Bar),
	}
}

// barKey generates a unique key for a bar.
func barKey(symbol string, g domain.Granularity, t time.Time) string {
	return fmt.Sprintf("%s|%s|%d", symbol, g, t.UnixNano())
}

// InsertBulk adds multiple bars of one granularity. Fails the entire
// batch on duplicate (symbol, granularity, time).
func (s *BarStore) InsertBulk(_ context.Context, g domain.Granularity, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	if !g.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(bars))

	for _, b := range bars {
		if b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := barKey(b.Symbol, g, b.Time)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, b := range bars {
		s.data[barKey(b.Symbol, g, b.Time)] = b
	}

	return nil
}

// GetBySymbol retrieves all bars for a symbol at a granularity, ordered
// by time ASC.
func (s *BarStore) GetBySymbol(_ context.Context, symbol string, g domain.Granularity) (domain.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := fmt.Sprintf("%s|%s|", symbol, g)
	var result domain.Series
	for key, b := range s.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			result = append(result, b)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Time.Before(result[j].Time)
	})

	return result, nil
}

// GetByTimeRange retrieves bars for a symbol within [start, end]
// (inclusive), ordered by time ASC.
func (s *BarStore) GetByTimeRange(ctx context.Context, symbol string, g domain.Granularity, start, end time.Time) (domain.Series, error) {
	all, err := s.GetBySymbol(ctx, symbol, g)
	if err != nil {
		return nil, err
	}

	var result domain.Series
	for _, b := range all {
		if !b.Time.Before(start) && !b.Time.After(end) {
			result = append(result, b)
		}
	}
	return result, nil
}

var _ storage.BarStore = (*BarStore)(nil)
