// Package config loads a YAML run file describing one analysis run:
// the instrument, the day filters, the zone filter blocks, the store
// DSNs and the report destination.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"intraday-almanac/internal/domain"
	"intraday-almanac/internal/filtering"
	"intraday-almanac/internal/zone"
)

// WindowBlock is one zone window endpoint in the run file.
type WindowBlock struct {
	DayOffset int `yaml:"day_offset"`
	Hour      int `yaml:"hour"`
	Minute    int `yaml:"minute"`
}

// ZoneBlock is one zone filter block in the run file. Disabled blocks
// are ignored; enabled blocks missing target_pct or tolerance_pct fail
// loading.
type ZoneBlock struct {
	Name         string       `yaml:"name"`
	Enabled      bool         `yaml:"enabled"`
	TargetPct    *float64     `yaml:"target_pct"`
	TolerancePct *float64     `yaml:"tolerance_pct"`
	Start        *WindowBlock `yaml:"start"`
	End          *WindowBlock `yaml:"end"`
}

// Config holds all run configuration.
type Config struct {
	Symbol   string `yaml:"symbol"`
	Timezone string `yaml:"timezone"`

	Storage struct {
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
		UseMemory     bool   `yaml:"use_memory"`
	} `yaml:"storage"`

	Filters struct {
		Tokens       []string `yaml:"tokens"`
		VolThreshold *float64 `yaml:"vol_threshold"`
		PctThreshold *float64 `yaml:"pct_threshold"`
		TimeA        string   `yaml:"time_a"`
		TimeB        string   `yaml:"time_b"`
	} `yaml:"filters"`

	Zones []ZoneBlock `yaml:"zones"`

	Report struct {
		OutputDir string `yaml:"output_dir"`
	} `yaml:"report"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	Workers int `yaml:"workers"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error; the caller still gets the
// defaults plus whatever the environment provides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ALMANAC_SYMBOL"); v != "" {
		cfg.Symbol = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("ALMANAC_OUTPUT_DIR"); v != "" {
		cfg.Report.OutputDir = v
	}
	if v := os.Getenv("ALMANAC_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	// Defaults
	if cfg.Timezone == "" {
		cfg.Timezone = "America/New_York"
	}
	if cfg.Report.OutputDir == "" {
		cfg.Report.OutputDir = "output"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !c.Storage.UseMemory {
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required unless storage.use_memory is set")
		}
		if c.Storage.ClickhouseDSN == "" {
			return fmt.Errorf("storage.clickhouse_dsn is required unless storage.use_memory is set")
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, _, err := c.TimeClocks(); err != nil {
		return err
	}
	if _, err := c.ZoneSpecs(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// FilterKinds maps the configured filter tokens to kinds. Unrecognized
// tokens are dropped, matching the pipeline's lenient token handling.
func (c *Config) FilterKinds() []domain.FilterKind {
	return domain.ParseFilterKinds(c.Filters.Tokens)
}

// TimeClocks parses the optional time_a/time_b comparison clocks.
// Unset clocks return nil; the comparison filters treat that as a
// no-op.
func (c *Config) TimeClocks() (a, b *filtering.Clock, err error) {
	if a, err = parseClock("filters.time_a", c.Filters.TimeA); err != nil {
		return nil, nil, err
	}
	if b, err = parseClock("filters.time_b", c.Filters.TimeB); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func parseClock(field, s string) (*filtering.Clock, error) {
	if s == "" {
		return nil, nil
	}
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return nil, fmt.Errorf("%s: expected HH:MM, got %q", field, s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("%s: %q is not a valid wall-clock time", field, s)
	}
	return &filtering.Clock{Hour: hour, Minute: minute}, nil
}

// ZoneSpecs validates the zone blocks and returns the enabled ones as
// live specs. Disabled blocks yield nothing; enabled blocks with
// missing or illegal parameters fail with the offending field named.
func (c *Config) ZoneSpecs() ([]*zone.FilterSpec, error) {
	specs := make([]*zone.FilterSpec, 0, len(c.Zones))
	for _, block := range c.Zones {
		spec, err := zone.ParseSpec(block.Name, block.Enabled,
			block.TargetPct, block.TolerancePct,
			windowOf(block.Start), windowOf(block.End))
		if err != nil {
			return nil, err
		}
		if spec != nil {
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

func windowOf(b *WindowBlock) *zone.Window {
	if b == nil {
		return nil
	}
	return &zone.Window{DayOffset: b.DayOffset, Hour: b.Hour, Minute: b.Minute}
}

// PipelineParams assembles the day-filter parameters for the filtering
// pipeline from the configured tokens and thresholds.
func (c *Config) PipelineParams() filtering.Params {
	return filtering.Params{
		Filters:      c.FilterKinds(),
		VolThreshold: c.Filters.VolThreshold,
		PctThreshold: c.Filters.PctThreshold,
	}
}
