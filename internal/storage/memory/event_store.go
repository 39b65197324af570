package memory

import (
	"context"
	"sync"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu     sync.RWMutex
	events map[domain.EventType]map[domain.Date]struct{}
}

// NewEventStore creates a new in-memory economic-event store with an
// empty calendar per recognized event type.
func NewEventStore() *EventStore {
	events := make(map[domain.EventType]map[domain.Date]struct{}, len(domain.AllEventTypes))
	for _, t := range domain.AllEventTypes {
		events[t] = make(map[domain.Date]struct{})
	}
	return &EventStore{events: events}
}

// InsertBulk adds dates to one event calendar. Fails the entire batch
// on duplicate.
func (s *EventStore) InsertBulk(_ context.Context, eventType domain.EventType, dates []domain.Date) error {
	if !eventType.IsValid() {
		return storage.ErrUnknownEventType
	}
	if len(dates) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	calendar := s.events[eventType]
	batch := make(map[domain.Date]struct{}, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			return storage.ErrInvalidInput
		}
		if _, exists := calendar[d]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[d]; exists {
			return storage.ErrDuplicateKey
		}
		batch[d] = struct{}{}
	}

	for d := range batch {
		calendar[d] = struct{}{}
	}
	return nil
}

// EventDates returns the set of dates on which the event occurred.
func (s *EventStore) EventDates(_ context.Context, eventType domain.EventType) (map[domain.Date]struct{}, error) {
	if !eventType.IsValid() {
		return nil, storage.ErrUnknownEventType
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	calendar := s.events[eventType]
	result := make(map[domain.Date]struct{}, len(calendar))
	for d := range calendar {
		result[d] = struct{}{}
	}
	return result, nil
}

// AllMajorEventDates returns the union of every event calendar.
func (s *EventStore) AllMajorEventDates(_ context.Context) (map[domain.Date]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[domain.Date]struct{})
	for _, calendar := range s.events {
		for d := range calendar {
			result[d] = struct{}{}
		}
	}
	return result, nil
}

var _ storage.EventStore = (*EventStore)(nil)
