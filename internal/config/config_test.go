package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantfolio/internal/tune"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, tune.ObjectiveBlended, cfg.Optimizer.Objective)
	assert.Equal(t, tune.AlgorithmDifferentialEvolution, cfg.Optimizer.Algorithm)
	assert.Equal(t, 1000, cfg.MonteCarlo.NumSimulations)
	assert.Equal(t, 252, cfg.MonteCarlo.HorizonDays)
	assert.Equal(t, 10, cfg.Robustness.NumPeriods)
	assert.InDelta(t, 0.05, cfg.Optimizer.Bounds.Min, 1e-12)
	assert.InDelta(t, 0.60, cfg.Optimizer.Bounds.Max, 1e-12)
}

func TestLoadFromFileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quantfolio.yaml")
	doc := `
params:
  starting_capital: 250000
  risk_free_rate: 0.05
optimizer:
  objective: max_sharpe
  bounds:
    min: 0.10
    max: 0.50
monte_carlo:
  num_simulations: 500
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 250000.0, cfg.Params.StartingCapital)
	assert.Equal(t, tune.ObjectiveMaxSharpe, cfg.Optimizer.Objective)
	assert.Equal(t, 0.10, cfg.Optimizer.Bounds.Min)
	assert.Equal(t, 500, cfg.MonteCarlo.NumSimulations)

	// Untouched fields keep their defaults.
	assert.Equal(t, 252, cfg.MonteCarlo.HorizonDays)
	assert.Equal(t, 10, cfg.Robustness.NumPeriods)

	// The top-level params section governs every component.
	assert.Equal(t, 250000.0, cfg.Optimizer.Params.StartingCapital)
	assert.Equal(t, 250000.0, cfg.Robustness.Params.StartingCapital)
	assert.Equal(t, 250000.0, cfg.MonteCarlo.StartingCapital)
	assert.InDelta(t, 0.05/252.0, cfg.Params.DailyRiskFreeRate, 1e-12)
}

func TestLoadFromFileRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	doc := `
monte_carlo:
  num_simulations: 0
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
