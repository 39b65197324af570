package reporting

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/zone"
)

func reportBar(day, hour, minute int, open, close float64) domain.Bar {
	return domain.Bar{
		Symbol: "ES",
		Time:   time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC),
		Open:   open,
		High:   open + 1,
		Low:    close - 1,
		Close:  close,
		Volume: 1000,
	}
}

func reportFixture() (minute, daily domain.Series) {
	for day := 4; day <= 6; day++ {
		minute = append(minute,
			reportBar(day, 9, 30, 100, 100.5),
			reportBar(day, 10, 0, 100.5, 101),
			reportBar(day, 16, 0, 101, 101.5),
		)
		daily = append(daily, reportBar(day, 0, 0, 100, 101.5))
	}
	return minute, daily
}

func TestGenerator_Generate(t *testing.T) {
	minute, daily := reportFixture()
	filtered := minute[:6] // first two days survive the day filters

	fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator().WithClock(func() time.Time { return fixed })

	r := gen.Generate(Input{
		Symbol:       "ES",
		FilterTokens: []string{"monday", "prev_pos"},
		Minute:       minute,
		Daily:        daily,
		Filtered:     filtered,
		ZoneFiltered: filtered,
	})

	if !r.GeneratedAt.Equal(fixed) {
		t.Errorf("expected injected clock time, got %s", r.GeneratedAt)
	}
	if r.RunSummary.RowsIn != 9 || r.RunSummary.RowsOut != 6 {
		t.Errorf("unexpected row counts %+v", r.RunSummary)
	}
	if r.RunSummary.DaysIn != 3 || r.RunSummary.DaysOut != 2 {
		t.Errorf("unexpected day counts %+v", r.RunSummary)
	}
	if r.DaySummary == nil || r.DaySummary.NumDays != 2 {
		t.Fatalf("unexpected day summary %+v", r.DaySummary)
	}
	if len(r.Hourly) == 0 || len(r.Weekday) == 0 || len(r.Monthly) == 0 {
		t.Error("expected non-empty bucket tables")
	}
	if len(r.VolCurve) != 3 {
		t.Errorf("expected 3 vol curve slots, got %d", len(r.VolCurve))
	}

	// Trailing stats over the two surviving days: every daily bar
	// gains 1.5%, so the mean is flat and the std zero.
	if len(r.DailyTrend) != 2 {
		t.Fatalf("expected 2 trend rows, got %d", len(r.DailyTrend))
	}
	last := r.DailyTrend[1]
	if last.ReturnPct != 1.5 || last.Mean != 1.5 || last.Std != 0 {
		t.Errorf("unexpected trend row %+v", last)
	}
	if len(r.Correlations.Labels) != 3 {
		t.Errorf("expected 3 correlation columns, got %v", r.Correlations.Labels)
	}
}

func TestGenerator_GenerateWithZoneDiagnostics(t *testing.T) {
	minute, daily := reportFixture()

	engine := zone.NewEngine(time.UTC, 1)
	spec, err := zone.NewFilterSpec("session", 1.5, 0.1,
		zone.Window{Hour: 9, Minute: 30}, zone.Window{Hour: 16})
	if err != nil {
		t.Fatalf("NewFilterSpec: %v", err)
	}

	zoneFiltered, diag, err := engine.Apply(context.Background(), minute, []*zone.FilterSpec{spec})
	if err != nil {
		t.Fatalf("zone Apply: %v", err)
	}

	r := NewGenerator().Generate(Input{
		Symbol:       "ES",
		Minute:       minute,
		Daily:        daily,
		Filtered:     minute,
		ZoneFiltered: zoneFiltered,
		ZoneDiag:     diag,
	})

	if len(r.ZoneDiagnostics) == 0 {
		t.Error("expected rendered zone diagnostics")
	}
	// Every session gains exactly 1.5%, so all three days pass.
	if r.RunSummary.ZoneDays != 3 {
		t.Errorf("expected 3 days after zone filters, got %d", r.RunSummary.ZoneDays)
	}
}

func TestRenderMarkdown_Sections(t *testing.T) {
	minute, daily := reportFixture()
	r := NewGenerator().Generate(Input{
		Symbol:       "ES",
		FilterTokens: []string{"friday"},
		Minute:       minute,
		Daily:        daily,
		Filtered:     minute,
		ZoneFiltered: minute,
	})

	md := RenderMarkdown(r)
	for _, want := range []string{
		"# Intraday Almanac: ES",
		"Filters: friday",
		"## Run Summary",
		"## Filtered-Day Statistics",
		"## Hourly Measures",
		"## Weekday Measures",
		"## Monthly Measures",
		"## Intraday Volatility Curve",
		"## Daily Return Trend",
		"## Daily Metric Correlations",
		"## Zone Filter Diagnostics",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_EmptyRun(t *testing.T) {
	r := NewGenerator().Generate(Input{Symbol: "ES"})
	md := RenderMarkdown(r)
	if !strings.Contains(md, "No days survived filtering.") {
		t.Error("expected empty-run day statistics message")
	}
	if !strings.Contains(md, "No zone filters applied.") {
		t.Error("expected no-zone message")
	}
}

func TestRenderBucketCSV(t *testing.T) {
	minute, daily := reportFixture()
	r := NewGenerator().Generate(Input{
		Symbol: "ES", Minute: minute, Daily: daily,
		Filtered: minute, ZoneFiltered: minute,
	})

	body := RenderBucketCSV(r.Hourly)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != len(r.Hourly)+1 {
		t.Fatalf("expected header plus %d rows, got %d lines", len(r.Hourly), len(lines))
	}
	if !strings.HasPrefix(lines[0], "bucket,count,pct_mean") {
		t.Errorf("unexpected header %q", lines[0])
	}
}

func TestWriteFiles(t *testing.T) {
	minute, daily := reportFixture()
	r := NewGenerator().Generate(Input{
		Symbol: "ES", Minute: minute, Daily: daily,
		Filtered: minute, ZoneFiltered: minute,
	})

	dir := filepath.Join(t.TempDir(), "out")
	if err := WriteFiles(dir, r); err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}

	for _, name := range []string{"report.md", "hourly.csv", "weekday.csv", "monthly.csv", "volcurve.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing output file %s: %v", name, err)
		}
	}
}
