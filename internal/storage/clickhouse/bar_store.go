package clickhouse

import (
	"context"
	"fmt"
	"time"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse. Minute and daily
// bars live in separate tables sharing the same schema.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

func tableFor(g domain.Granularity) (string, error) {
	switch g {
	case domain.GranularityMinute:
		return "bars_minute", nil
	case domain.GranularityDaily:
		return "bars_daily", nil
	default:
		return "", fmt.Errorf("%w: granularity %q", storage.ErrInvalidInput, g)
	}
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, ts).
// ClickHouse MergeTree doesn't enforce uniqueness at insert time, so
// duplicates are detected with explicit checks before the batch is sent.
func (s *BarStore) InsertBulk(ctx context.Context, g domain.Granularity, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	table, err := tableFor(g)
	if err != nil {
		return err
	}

	// Check for intra-batch duplicates
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]struct{}, len(bars))
	for _, b := range bars {
		k := key{b.Symbol, b.Time.UnixMilli()}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, b := range bars {
		exists, err := s.exists(ctx, table, b.Symbol, b.Time)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			symbol, ts, open, high, low, close, volume
		)
	`, table))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			b.Symbol, b.Time, b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all bars for a symbol, ordered by ts ASC.
func (s *BarStore) GetBySymbol(ctx context.Context, symbol string, g domain.Granularity) (domain.Series, error) {
	table, err := tableFor(g)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT symbol, ts, open, high, low, close, volume
		FROM %s
		WHERE symbol = ?
		ORDER BY ts ASC
	`, table)

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query bars by symbol: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetByTimeRange retrieves bars for a symbol within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(ctx context.Context, symbol string, g domain.Granularity, start, end time.Time) (domain.Series, error) {
	table, err := tableFor(g)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT symbol, ts, open, high, low, close, volume
		FROM %s
		WHERE symbol = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`, table)

	rows, err := s.conn.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("query bars by time range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// exists checks if a bar with the given key exists.
func (s *BarStore) exists(ctx context.Context, table, symbol string, ts time.Time) (bool, error) {
	query := fmt.Sprintf(`
		SELECT count(*) FROM %s
		WHERE symbol = ? AND ts = ?
	`, table)

	var count uint64
	err := s.conn.QueryRow(ctx, query, symbol, ts).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanBars scans multiple rows into a Series.
func scanBars(rows chRows) (domain.Series, error) {
	var bars domain.Series

	for rows.Next() {
		var b domain.Bar

		err := rows.Scan(
			&b.Symbol, &b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}

		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}
