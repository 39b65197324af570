package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// InsertBulk adds multiple dates to one event calendar atomically.
// Fails entire batch on any duplicate.
func (s *EventStore) InsertBulk(ctx context.Context, eventType domain.EventType, dates []domain.Date) error {
	if !eventType.IsValid() {
		return storage.ErrUnknownEventType
	}
	if len(dates) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO economic_events (event_type, day) VALUES ($1, $2)`

	for _, d := range dates {
		if d.IsZero() {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query, string(eventType), d.Time(0, 0, time.UTC))
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert economic event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// EventDates returns the set of dates on which the event occurred.
func (s *EventStore) EventDates(ctx context.Context, eventType domain.EventType) (map[domain.Date]struct{}, error) {
	if !eventType.IsValid() {
		return nil, storage.ErrUnknownEventType
	}

	query := `
		SELECT day
		FROM economic_events
		WHERE event_type = $1
	`

	rows, err := s.pool.Query(ctx, query, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("get event dates: %w", err)
	}
	defer rows.Close()

	return scanDateSet(rows)
}

// AllMajorEventDates returns the union of every event calendar.
func (s *EventStore) AllMajorEventDates(ctx context.Context) (map[domain.Date]struct{}, error) {
	query := `SELECT DISTINCT day FROM economic_events`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all major event dates: %w", err)
	}
	defer rows.Close()

	return scanDateSet(rows)
}

// scanDateSet scans day rows into a date set.
func scanDateSet(rows pgx.Rows) (map[domain.Date]struct{}, error) {
	result := make(map[domain.Date]struct{})
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan event date row: %w", err)
		}
		result[domain.DateOf(day)] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event date rows: %w", err)
	}

	return result, nil
}
