package ingestion

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/observability"
	"intraday-almanac/internal/storage"
)

// Runner moves bars from a source or feed into a BarStore in batches.
type Runner struct {
	store         storage.BarStore
	granularity   domain.Granularity
	batchSize     int
	flushInterval time.Duration
	log           zerolog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBatchSize sets the flush threshold for streaming ingestion.
func WithBatchSize(n int) RunnerOption {
	return func(r *Runner) { r.batchSize = n }
}

// WithFlushInterval sets the maximum time a streamed bar sits
// unflushed.
func WithFlushInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.flushInterval = d }
}

// WithLogger sets the runner's logger.
func WithLogger(log zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// NewRunner creates an ingestion runner for one granularity.
func NewRunner(store storage.BarStore, g domain.Granularity, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:         store,
		granularity:   g,
		batchSize:     500,
		flushInterval: 5 * time.Second,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backfill fetches historical bars and inserts them in batches. A
// batch rejected as a duplicate is logged and skipped: re-running a
// backfill over an already-loaded range is routine, not an error.
// Returns the number of bars inserted.
func (r *Runner) Backfill(ctx context.Context, src BarSource, symbol string, from, to time.Time) (int, error) {
	bars, err := src.Fetch(ctx, symbol, from, to)
	if err != nil {
		return 0, err
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	inserted := 0
	for start := 0; start < len(bars); start += r.batchSize {
		end := start + r.batchSize
		if end > len(bars) {
			end = len(bars)
		}
		n, err := r.flush(ctx, bars[start:end])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}

	r.log.Info().
		Str("symbol", symbol).
		Str("granularity", r.granularity.String()).
		Int("fetched", len(bars)).
		Int("inserted", inserted).
		Msg("backfill complete")
	return inserted, nil
}

// Stream consumes a live feed until the context is cancelled or the
// feed closes, flushing on batch size or the flush interval.
func (r *Runner) Stream(ctx context.Context, feed BarFeed, symbol string) error {
	ch, err := feed.Subscribe(ctx, symbol)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	batch := make([]domain.Bar, 0, r.batchSize)
	flushBatch := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := r.flush(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			// Drain what is already buffered before stopping. The flush
			// uses a fresh context so cancellation does not lose bars.
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if len(batch) > 0 {
				if _, err := r.flush(flushCtx, batch); err != nil {
					return err
				}
			}
			return ctx.Err()
		case bar, ok := <-ch:
			if !ok {
				return flushBatch()
			}
			batch = append(batch, bar)
			if len(batch) >= r.batchSize {
				if err := flushBatch(); err != nil {
					return err
				}
			}
		case <-ticker.C:
			if err := flushBatch(); err != nil {
				return err
			}
		}
	}
}

// flush inserts one batch. Duplicate batches are logged and counted,
// not fatal.
func (r *Runner) flush(ctx context.Context, batch []domain.Bar) (int, error) {
	err := r.store.InsertBulk(ctx, r.granularity, batch)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			observability.RecordBatchRejected("duplicate")
			r.log.Warn().
				Int("bars", len(batch)).
				Str("granularity", r.granularity.String()).
				Msg("skipping batch with duplicate bars")
			return 0, nil
		}
		observability.RecordBatchRejected("store_error")
		return 0, err
	}

	observability.RecordBarsIngested(r.granularity.String(), len(batch))
	observability.DefaultMetrics.LastSuccessfulIngestion.SetToCurrentTime()
	return len(batch), nil
}
