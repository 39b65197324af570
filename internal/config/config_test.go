package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"intraday-almanac/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FullRunFile(t *testing.T) {
	path := writeConfig(t, `
symbol: ES
timezone: America/New_York
storage:
  use_memory: true
filters:
  tokens: [monday, prev_pos, relvol_gt, bogus_token]
  vol_threshold: 1.5
  time_a: "10:00"
  time_b: "11:30"
zones:
  - name: morning-up
    enabled: true
    target_pct: 1.0
    tolerance_pct: 0.2
    start: {hour: 9, minute: 30}
    end: {hour: 12, minute: 0}
  - name: switched-off
    enabled: false
report:
  output_dir: /tmp/almanac
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Symbol != "ES" {
		t.Errorf("unexpected symbol %q", cfg.Symbol)
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("expected default metrics addr, got %q", cfg.Metrics.Addr)
	}

	kinds := cfg.FilterKinds()
	want := []domain.FilterKind{domain.FilterMonday, domain.FilterPrevPos, domain.FilterRelVolGT}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d kinds (bogus token dropped), got %v", len(want), kinds)
	}
	for i, k := range want {
		if kinds[i] != k {
			t.Errorf("kind[%d] = %v, want %v", i, kinds[i], k)
		}
	}

	a, b, err := cfg.TimeClocks()
	if err != nil {
		t.Fatalf("TimeClocks failed: %v", err)
	}
	if a == nil || a.Hour != 10 || a.Minute != 0 {
		t.Errorf("unexpected time_a clock %+v", a)
	}
	if b == nil || b.Hour != 11 || b.Minute != 30 {
		t.Errorf("unexpected time_b clock %+v", b)
	}

	specs, err := cfg.ZoneSpecs()
	if err != nil {
		t.Fatalf("ZoneSpecs failed: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("expected the single enabled zone, got %d", len(specs))
	}
	if specs[0].Name() != "morning-up" {
		t.Errorf("unexpected spec name %q", specs[0].Name())
	}
	low, high := specs[0].Range()
	if low != 0.8 || high != 1.2 {
		t.Errorf("unexpected band [%v, %v]", low, high)
	}

	params := cfg.PipelineParams()
	if params.VolThreshold == nil || *params.VolThreshold != 1.5 {
		t.Errorf("unexpected vol threshold %v", params.VolThreshold)
	}
	if params.PctThreshold != nil {
		t.Errorf("expected nil pct threshold, got %v", *params.PctThreshold)
	}
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Timezone != "America/New_York" {
		t.Errorf("expected default timezone, got %q", cfg.Timezone)
	}
	if cfg.Report.OutputDir != "output" {
		t.Errorf("expected default output dir, got %q", cfg.Report.OutputDir)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "symbol: ES\n")
	t.Setenv("ALMANAC_SYMBOL", "NQ")
	t.Setenv("POSTGRES_DSN", "postgres://env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Symbol != "NQ" {
		t.Errorf("env override lost, symbol %q", cfg.Symbol)
	}
	if cfg.Storage.PostgresDSN != "postgres://env" {
		t.Errorf("env override lost, dsn %q", cfg.Storage.PostgresDSN)
	}
}

func TestValidate_RequiresSymbolAndStores(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "symbol") {
		t.Errorf("expected missing-symbol error, got %v", err)
	}

	cfg.Symbol = "ES"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "postgres_dsn") {
		t.Errorf("expected missing-DSN error, got %v", err)
	}

	cfg.Storage.UseMemory = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("in-memory run should not require DSNs, got %v", err)
	}
}

func TestValidate_EnabledZoneMissingTarget(t *testing.T) {
	path := writeConfig(t, `
symbol: ES
storage:
  use_memory: true
zones:
  - name: broken
    enabled: true
    tolerance_pct: 0.2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "target_pct") {
		t.Errorf("expected error naming target_pct, got %v", err)
	}
}

func TestTimeClocks_RejectsMalformed(t *testing.T) {
	path := writeConfig(t, `
symbol: ES
storage:
  use_memory: true
filters:
  time_a: "25:00"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, _, err := cfg.TimeClocks(); err == nil || !strings.Contains(err.Error(), "time_a") {
		t.Errorf("expected error naming time_a, got %v", err)
	}
}
