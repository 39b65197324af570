package memory

import (
	"context"
	"sort"
	"sync"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/storage"
)

// TradingDayStore is an in-memory implementation of
// storage.TradingDayStore.
type TradingDayStore struct {
	mu   sync.RWMutex
	days map[domain.Date]struct{}
}

// NewTradingDayStore creates a new in-memory trading-day store.
func NewTradingDayStore() *TradingDayStore {
	return &TradingDayStore{
		days: make(map[domain.Date]struct{}),
	}
}

// InsertBulk adds trading days. Fails the entire batch on duplicate.
func (s *TradingDayStore) InsertBulk(_ context.Context, dates []domain.Date) error {
	if len(dates) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[domain.Date]struct{}, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			return storage.ErrInvalidInput
		}
		if _, exists := s.days[d]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[d]; exists {
			return storage.ErrDuplicateKey
		}
		batch[d] = struct{}{}
	}

	for d := range batch {
		s.days[d] = struct{}{}
	}
	return nil
}

// Previous returns the last trading day strictly before d.
func (s *TradingDayStore) Previous(_ context.Context, d domain.Date) (domain.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best domain.Date
	found := false
	for day := range s.days {
		if day.Before(d) && (!found || day.After(best)) {
			best = day
			found = true
		}
	}
	if !found {
		return domain.Date{}, storage.ErrNotFound
	}
	return best, nil
}

// Next returns the first trading day strictly after d.
func (s *TradingDayStore) Next(_ context.Context, d domain.Date) (domain.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best domain.Date
	found := false
	for day := range s.days {
		if day.After(d) && (!found || day.Before(best)) {
			best = day
			found = true
		}
	}
	if !found {
		return domain.Date{}, storage.ErrNotFound
	}
	return best, nil
}

// GetRange retrieves trading days within [start, end] (inclusive),
// ordered ASC.
func (s *TradingDayStore) GetRange(_ context.Context, start, end domain.Date) ([]domain.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Date
	for day := range s.days {
		if !day.Before(start) && !day.After(end) {
			result = append(result, day)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Before(result[j])
	})

	return result, nil
}

var _ storage.TradingDayStore = (*TradingDayStore)(nil)
