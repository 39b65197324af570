package postgres

import (
	"context"
	"fmt"
	"time"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/storage"
)

// TradingDayStore implements storage.TradingDayStore using PostgreSQL.
type TradingDayStore struct {
	pool *Pool
}

// NewTradingDayStore creates a new TradingDayStore.
func NewTradingDayStore(pool *Pool) *TradingDayStore {
	return &TradingDayStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradingDayStore = (*TradingDayStore)(nil)

// InsertBulk adds multiple trading days atomically. Fails entire batch on any duplicate.
func (s *TradingDayStore) InsertBulk(ctx context.Context, dates []domain.Date) error {
	if len(dates) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO trading_days (day) VALUES ($1)`

	for _, d := range dates {
		if d.IsZero() {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query, d.Time(0, 0, time.UTC))
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trading day in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// Previous returns the last trading day strictly before d. Returns ErrNotFound
// if no earlier session is known.
func (s *TradingDayStore) Previous(ctx context.Context, d domain.Date) (domain.Date, error) {
	query := `
		SELECT day
		FROM trading_days
		WHERE day < $1
		ORDER BY day DESC
		LIMIT 1
	`

	var day time.Time
	err := s.pool.QueryRow(ctx, query, d.Time(0, 0, time.UTC)).Scan(&day)
	if err != nil {
		if isNotFoundError(err) {
			return domain.Date{}, storage.ErrNotFound
		}
		return domain.Date{}, fmt.Errorf("get previous trading day: %w", err)
	}
	return domain.DateOf(day), nil
}

// Next returns the first trading day strictly after d. Returns ErrNotFound
// if no later session is known.
func (s *TradingDayStore) Next(ctx context.Context, d domain.Date) (domain.Date, error) {
	query := `
		SELECT day
		FROM trading_days
		WHERE day > $1
		ORDER BY day ASC
		LIMIT 1
	`

	var day time.Time
	err := s.pool.QueryRow(ctx, query, d.Time(0, 0, time.UTC)).Scan(&day)
	if err != nil {
		if isNotFoundError(err) {
			return domain.Date{}, storage.ErrNotFound
		}
		return domain.Date{}, fmt.Errorf("get next trading day: %w", err)
	}
	return domain.DateOf(day), nil
}

// GetRange retrieves trading days within [start, end] (inclusive), ordered ASC.
func (s *TradingDayStore) GetRange(ctx context.Context, start, end domain.Date) ([]domain.Date, error) {
	query := `
		SELECT day
		FROM trading_days
		WHERE day >= $1 AND day <= $2
		ORDER BY day ASC
	`

	rows, err := s.pool.Query(ctx, query, start.Time(0, 0, time.UTC), end.Time(0, 0, time.UTC))
	if err != nil {
		return nil, fmt.Errorf("get trading days by range: %w", err)
	}
	defer rows.Close()

	var result []domain.Date
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan trading day row: %w", err)
		}
		result = append(result, domain.DateOf(day))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trading day rows: %w", err)
	}

	return result, nil
}
