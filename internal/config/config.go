// Package config loads analysis defaults from YAML. Loaded values are plain
// parameter structs handed into each engine entry point; nothing here is
// process-wide mutable state, so concurrent runs with different configs
// never interfere.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quantfolio/quantfolio/internal/montecarlo"
	"github.com/quantfolio/quantfolio/internal/perf"
	"github.com/quantfolio/quantfolio/internal/robust"
	"github.com/quantfolio/quantfolio/internal/tune"
)

// Config bundles the per-component defaults for one analysis session.
type Config struct {
	Params     perf.Params       `yaml:"params"`
	Optimizer  tune.Config       `yaml:"optimizer"`
	MonteCarlo montecarlo.Config `yaml:"monte_carlo"`
	Robustness robust.Config     `yaml:"robustness"`
}

// Default returns the built-in defaults for every component.
func Default() Config {
	params := perf.DefaultParams()

	optimizer := tune.DefaultConfig()
	optimizer.Params = params

	mc := montecarlo.DefaultConfig()
	mc.StartingCapital = params.StartingCapital

	rb := robust.DefaultConfig()
	rb.Params = params

	return Config{
		Params:     params,
		Optimizer:  optimizer,
		MonteCarlo: mc,
		Robustness: rb,
	}
}

// LoadFromFile reads a YAML config, layering it over the defaults so a file
// only needs the fields it changes.
func LoadFromFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}

	// The top-level params section governs every component; the daily
	// risk-free rate is re-derived so Sharpe stays consistent with the
	// annual rate actually configured.
	cfg.Params.DailyRiskFreeRate = cfg.Params.RiskFreeRate / float64(cfg.Params.TradingDaysPerYear)
	cfg.Optimizer.Params = cfg.Params
	cfg.Robustness.Params = cfg.Params
	cfg.MonteCarlo.StartingCapital = cfg.Params.StartingCapital

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the loaded values before any computation uses them.
func (c Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	if c.MonteCarlo.NumSimulations < 1 {
		return fmt.Errorf("monte_carlo: num_simulations must be at least 1, got %d", c.MonteCarlo.NumSimulations)
	}
	if c.MonteCarlo.HorizonDays < 1 {
		return fmt.Errorf("monte_carlo: horizon_days must be at least 1, got %d", c.MonteCarlo.HorizonDays)
	}
	if c.Robustness.NumPeriods < 1 {
		return fmt.Errorf("robustness: num_periods must be at least 1, got %d", c.Robustness.NumPeriods)
	}
	if c.Robustness.PeriodLengthDays < 1 {
		return fmt.Errorf("robustness: period_length_days must be at least 1, got %d", c.Robustness.PeriodLengthDays)
	}
	return nil
}
