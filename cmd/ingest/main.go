// Package main loads data into the almanac stores: CSV bar backfill,
// live WebSocket bar ingestion, and trading-calendar/event seeding.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"intraday-almanac/internal/config"
	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/ingestion"
	"intraday-almanac/internal/observability"
	"intraday-almanac/internal/storage"
	chstore "intraday-almanac/internal/storage/clickhouse"
	"intraday-almanac/internal/storage/memory"
	"intraday-almanac/internal/storage/migrations"
	pgstore "intraday-almanac/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "run.yaml", "Path to the run configuration file")
	mode := flag.String("mode", "bars", "Ingestion mode: bars, live, calendar, or events")
	symbol := flag.String("symbol", "", "Instrument symbol (overrides config)")
	granularity := flag.String("granularity", "minute", "Bar granularity: minute or daily")
	dir := flag.String("dir", "", "Directory of per-symbol bar CSV files (bars mode)")
	file := flag.String("file", "", "CSV file to seed (calendar and events modes)")
	wsEndpoint := flag.String("ws-endpoint", "", "WebSocket bar feed endpoint (live mode)")
	fromFlag := flag.String("from", "", "Backfill range start (RFC3339, bars mode)")
	toFlag := flag.String("to", "", "Backfill range end (RFC3339, bars mode)")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *symbol != "" {
		cfg.Symbol = *symbol
	}

	g, err := parseGranularity(*granularity)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid granularity")
	}

	// Metrics server
	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			log.Info().Str("addr", cfg.Metrics.Addr).Msg("starting metrics server")
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "bars":
		err = runBars(ctx, cfg, log, g, *dir, *fromFlag, *toFlag)
	case "live":
		err = runLive(ctx, cfg, log, g, *wsEndpoint)
	case "calendar":
		err = runCalendarSeed(ctx, cfg, log, *file)
	case "events":
		err = runEventSeed(ctx, cfg, log, *file)
	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}

	if err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("ingestion failed")
	}
	log.Info().Msg("done")
}

func parseGranularity(s string) (domain.Granularity, error) {
	switch strings.ToLower(s) {
	case "minute":
		return domain.GranularityMinute, nil
	case "daily":
		return domain.GranularityDaily, nil
	default:
		return "", fmt.Errorf("granularity must be minute or daily, got %q", s)
	}
}

// runBars backfills bars from CSV files into the bar store.
func runBars(ctx context.Context, cfg *config.Config, log zerolog.Logger, g domain.Granularity, dir, fromFlag, toFlag string) error {
	if cfg.Symbol == "" {
		return fmt.Errorf("--symbol is required")
	}
	if dir == "" {
		return fmt.Errorf("--dir is required in bars mode")
	}

	from, to, err := parseRange(fromFlag, toFlag)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, cleanup, err := openBarStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := ingestion.NewRunner(store, g, ingestion.WithLogger(log))
	src := ingestion.NewCSVSource(dir, loc)

	n, err := runner.Backfill(ctx, src, cfg.Symbol, from, to)
	if err != nil {
		return err
	}
	log.Info().Int("bars", n).Msg("backfill finished")
	return nil
}

// runLive streams bars from a WebSocket feed into the bar store until
// interrupted.
func runLive(ctx context.Context, cfg *config.Config, log zerolog.Logger, g domain.Granularity, wsEndpoint string) error {
	if cfg.Symbol == "" {
		return fmt.Errorf("--symbol is required")
	}
	if wsEndpoint == "" {
		return fmt.Errorf("--ws-endpoint is required in live mode")
	}

	store, cleanup, err := openBarStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	feed, err := ingestion.NewWSFeed(ctx, wsEndpoint, nil)
	if err != nil {
		return err
	}
	defer feed.Close()

	log.Info().Str("endpoint", wsEndpoint).Str("symbol", cfg.Symbol).Msg("streaming bars")
	runner := ingestion.NewRunner(store, g, ingestion.WithLogger(log))
	return runner.Stream(ctx, feed, cfg.Symbol)
}

// runCalendarSeed loads a trading-day CSV into the calendar store.
func runCalendarSeed(ctx context.Context, cfg *config.Config, log zerolog.Logger, file string) error {
	if file == "" {
		return fmt.Errorf("--file is required in calendar mode")
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	days, err := ingestion.ReadTradingDays(f)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	store, cleanup, err := openReferenceStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.days.InsertBulk(ctx, days); err != nil {
		return fmt.Errorf("insert trading days: %w", err)
	}
	log.Info().Int("days", len(days)).Msg("calendar seeded")
	return nil
}

// runEventSeed loads an economic-event CSV into the event store.
func runEventSeed(ctx context.Context, cfg *config.Config, log zerolog.Logger, file string) error {
	if file == "" {
		return fmt.Errorf("--file is required in events mode")
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	events, err := ingestion.ReadEvents(f)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	store, cleanup, err := openReferenceStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	total := 0
	for eventType, dates := range events {
		if err := store.events.InsertBulk(ctx, eventType, dates); err != nil {
			return fmt.Errorf("insert %s dates: %w", eventType, err)
		}
		total += len(dates)
	}
	log.Info().Int("dates", total).Int("calendars", len(events)).Msg("events seeded")
	return nil
}

func parseRange(fromFlag, toFlag string) (from, to time.Time, err error) {
	// Default to all of history up to now.
	to = time.Now()
	if fromFlag != "" {
		from, err = time.Parse(time.RFC3339, fromFlag)
		if err != nil {
			return from, to, fmt.Errorf("--from: %w", err)
		}
	}
	if toFlag != "" {
		to, err = time.Parse(time.RFC3339, toFlag)
		if err != nil {
			return from, to, fmt.Errorf("--to: %w", err)
		}
	}
	return from, to, nil
}

// openBarStore connects to ClickHouse, or an in-memory store for dry
// runs.
func openBarStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.BarStore, func(), error) {
	if cfg.Storage.UseMemory {
		return memory.NewBarStore(), func() {}, nil
	}
	if cfg.Storage.ClickhouseDSN == "" {
		return nil, nil, fmt.Errorf("storage.clickhouse_dsn is required")
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	log.Info().Msg("clickhouse ready")
	return chstore.NewBarStore(conn), func() { conn.Close() }, nil
}

// referenceStores bundles the Postgres-backed reference stores.
type referenceStores struct {
	days   storage.TradingDayStore
	events storage.EventStore
}

func openReferenceStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*referenceStores, func(), error) {
	if cfg.Storage.UseMemory {
		return &referenceStores{
			days:   memory.NewTradingDayStore(),
			events: memory.NewEventStore(),
		}, func() {}, nil
	}
	if cfg.Storage.PostgresDSN == "" {
		return nil, nil, fmt.Errorf("storage.postgres_dsn is required")
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	log.Info().Msg("postgres ready")
	return &referenceStores{
		days:   pgstore.NewTradingDayStore(pool),
		events: pgstore.NewEventStore(pool),
	}, func() { pool.Close() }, nil
}
