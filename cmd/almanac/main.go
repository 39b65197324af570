// Package main runs one almanac analysis: load bars and reference
// data, apply the configured day and zone filters, compute the
// statistics, and write the report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"intraday-almanac/internal/calendar"
	"intraday-almanac/internal/config"
	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/filtering"
	"intraday-almanac/internal/observability"
	"intraday-almanac/internal/reporting"
	"intraday-almanac/internal/storage"
	chstore "intraday-almanac/internal/storage/clickhouse"
	"intraday-almanac/internal/storage/memory"
	"intraday-almanac/internal/storage/migrations"
	pgstore "intraday-almanac/internal/storage/postgres"
	"intraday-almanac/internal/zone"
)

func main() {
	configPath := flag.String("config", "run.yaml", "Path to the run configuration file")
	symbol := flag.String("symbol", "", "Instrument symbol (overrides config)")
	outputDir := flag.String("output-dir", "", "Report output directory (overrides config)")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *symbol != "" {
		cfg.Symbol = *symbol
	}
	if *outputDir != "" {
		cfg.Report.OutputDir = *outputDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("analysis run failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	stores, cleanup, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	log.Info().Str("symbol", cfg.Symbol).Msg("loading bar series")
	minute, err := stores.bars.GetBySymbol(ctx, cfg.Symbol, domain.GranularityMinute)
	if err != nil {
		return fmt.Errorf("load minute bars: %w", err)
	}
	daily, err := stores.bars.GetBySymbol(ctx, cfg.Symbol, domain.GranularityDaily)
	if err != nil {
		return fmt.Errorf("load daily bars: %w", err)
	}
	if len(minute) == 0 {
		return fmt.Errorf("no minute bars stored for %s", cfg.Symbol)
	}

	// Day filters
	kinds := cfg.FilterKinds()
	pipeline := filtering.NewPipeline(calendar.NewReference(stores.days), stores.events, log)

	started := time.Now()
	filtered, err := pipeline.Apply(ctx, minute, daily, cfg.PipelineParams())
	if err != nil {
		return fmt.Errorf("apply day filters: %w", err)
	}

	clockA, clockB, err := cfg.TimeClocks()
	if err != nil {
		return err
	}
	filtered = filtering.ApplyTimeComparison(filtered, kinds, clockA, clockB)
	observability.RecordFilterRun(len(minute), len(filtered), time.Since(started).Seconds())

	// Zone filters
	specs, err := cfg.ZoneSpecs()
	if err != nil {
		return err
	}

	zoneFiltered := filtered
	var diag *zone.Diagnostics
	if len(specs) > 0 {
		engine := zone.NewEngine(loc, cfg.Workers)
		zoneFiltered, diag, err = engine.Apply(ctx, filtered, specs)
		if err != nil {
			return fmt.Errorf("apply zone filters: %w", err)
		}
		observability.RecordZoneRun(diag.TotalDates, len(diag.Accepted))
		for _, res := range diag.Specs {
			observability.RecordZoneOutcome(res.Name, "pass", len(res.Passed))
			observability.RecordZoneOutcome(res.Name, "fail", len(res.Outcomes)-len(res.Passed))
		}
		for _, line := range diag.FormatLines() {
			log.Info().Msg(line)
		}
	}

	// Statistics and report
	report := reporting.NewGenerator().Generate(reporting.Input{
		Symbol:       cfg.Symbol,
		FilterTokens: cfg.Filters.Tokens,
		Minute:       minute,
		Daily:        daily,
		Filtered:     filtered,
		ZoneFiltered: zoneFiltered,
		ZoneDiag:     diag,
	})

	if err := reporting.WriteFiles(cfg.Report.OutputDir, report); err != nil {
		return err
	}
	observability.DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()

	log.Info().
		Int("rows_in", report.RunSummary.RowsIn).
		Int("rows_out", report.RunSummary.RowsOut).
		Int("days_in", report.RunSummary.DaysIn).
		Int("days_out", report.RunSummary.ZoneDays).
		Str("output_dir", cfg.Report.OutputDir).
		Msg("report written")
	return nil
}

// runStores bundles the three store interfaces a run needs.
type runStores struct {
	bars   storage.BarStore
	days   storage.TradingDayStore
	events storage.EventStore
}

// openStores connects to the configured backends, running migrations
// on the way, or falls back to empty in-memory stores.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*runStores, func(), error) {
	if cfg.Storage.UseMemory {
		return &runStores{
			bars:   memory.NewBarStore(),
			days:   memory.NewTradingDayStore(),
			events: memory.NewEventStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	log.Info().Msg("storage backends ready")
	cleanup := func() {
		pool.Close()
		conn.Close()
	}
	return &runStores{
		bars:   chstore.NewBarStore(conn),
		days:   pgstore.NewTradingDayStore(pool),
		events: pgstore.NewEventStore(pool),
	}, cleanup, nil
}
