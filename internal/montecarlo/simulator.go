// Package montecarlo forecasts future equity paths by bootstrap resampling
// of historical daily P/L. No distribution is fitted: each simulated day is
// drawn with replacement from the observed P/L values, so a degenerate
// all-zero history legitimately yields a flat forecast.
package montecarlo

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/quantfolio/quantfolio/internal/series"
	"github.com/quantfolio/quantfolio/internal/telemetry"
)

// Config controls one forecast run.
type Config struct {
	NumSimulations  int     `yaml:"num_simulations"`  // Paths to generate (default: 1000)
	HorizonDays     int     `yaml:"horizon_days"`     // Steps per path (default: 252)
	StartingCapital float64 `yaml:"starting_capital"` // Capital behind the historical series
	FromScratch     bool    `yaml:"from_scratch"`     // Anchor at starting capital instead of final equity
	Seed            int64   `yaml:"seed"`             // 0 seeds from the clock
	Workers         int     `yaml:"workers"`          // Parallel path generators (default: 4)
}

// DefaultConfig returns the standard forecast configuration.
func DefaultConfig() Config {
	return Config{
		NumSimulations:  1000,
		HorizonDays:     252,
		StartingCapital: 100000,
		Workers:         4,
	}
}

// Forecast holds the percentile curves of one simulation run. Index 0 of
// each curve is the anchor equity; index t is the cross-sectional percentile
// of simulated equity after t days. Raw paths are discarded before return.
type Forecast struct {
	RunID       string    `json:"run_id"`
	AnchorValue float64   `json:"anchor_value"` // Equity every path starts from
	HorizonDays int       `json:"horizon_days"`
	Simulations int       `json:"simulations"` // Paths actually completed
	P5          []float64 `json:"p5"`
	P50         []float64 `json:"p50"`
	P95         []float64 `json:"p95"`
}

// Simulate generates cfg.NumSimulations bootstrap equity paths and reduces
// them to 5th/50th/95th percentile curves. Cancelling ctx stops path
// generation early; the percentiles then cover the paths completed so far.
func Simulate(ctx context.Context, ts series.TradeSeries, cfg Config) (Forecast, error) {
	start := time.Now()
	defer func() {
		telemetry.Default().SimulateDuration.Observe(time.Since(start).Seconds())
	}()

	if err := ts.Validate(); err != nil {
		return Forecast{}, err
	}
	if cfg.NumSimulations < 1 {
		cfg.NumSimulations = 1
	}
	if cfg.HorizonDays < 1 {
		cfg.HorizonDays = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	anchor := cfg.StartingCapital
	if !cfg.FromScratch {
		anchor = series.BuildCurve(ts, cfg.StartingCapital).FinalEquity()
	}

	pnl := ts.PnL()

	// Each worker owns a disjoint range of rows, so the matrix needs no
	// locking. The matrix does not outlive this call.
	paths := make([][]float64, cfg.NumSimulations)
	done := make([]bool, cfg.NumSimulations)

	g, ctx := errgroup.WithContext(ctx)
	chunk := (cfg.NumSimulations + cfg.Workers - 1) / cfg.Workers
	for w := 0; w < cfg.Workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > cfg.NumSimulations {
			hi = cfg.NumSimulations
		}
		if lo >= hi {
			break
		}
		rng := rand.New(rand.NewSource(seed + int64(w)))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				select {
				case <-ctx.Done():
					// Budget exhausted: keep what finished, lose nothing.
					return nil
				default:
				}
				paths[i] = samplePath(rng, pnl, anchor, cfg.HorizonDays)
				done[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	completed := make([][]float64, 0, cfg.NumSimulations)
	for i, p := range paths {
		if done[i] {
			completed = append(completed, p)
		}
	}
	telemetry.Default().SimulatedPaths.Add(float64(len(completed)))

	f := Forecast{
		RunID:       uuid.NewString(),
		AnchorValue: anchor,
		HorizonDays: cfg.HorizonDays,
		Simulations: len(completed),
	}
	f.P5, f.P50, f.P95 = percentileCurves(completed, cfg.HorizonDays)
	return f, nil
}

// samplePath draws horizon daily P/L values with replacement and accumulates
// them into an equity path anchored at anchor. Index 0 is the anchor itself.
func samplePath(rng *rand.Rand, pnl []float64, anchor float64, horizon int) []float64 {
	path := make([]float64, horizon+1)
	path[0] = anchor
	equity := anchor
	for t := 1; t <= horizon; t++ {
		equity += pnl[rng.Intn(len(pnl))]
		path[t] = equity
	}
	return path
}

// percentileCurves computes the cross-sectional 5/50/95 percentiles at each
// time step across all completed paths.
func percentileCurves(paths [][]float64, horizon int) (p5, p50, p95 []float64) {
	p5 = make([]float64, horizon+1)
	p50 = make([]float64, horizon+1)
	p95 = make([]float64, horizon+1)
	if len(paths) == 0 {
		return p5, p50, p95
	}

	column := make([]float64, len(paths))
	for t := 0; t <= horizon; t++ {
		for i, path := range paths {
			column[i] = path[t]
		}
		sort.Float64s(column)
		p5[t] = stat.Quantile(0.05, stat.Empirical, column, nil)
		p50[t] = stat.Quantile(0.50, stat.Empirical, column, nil)
		p95[t] = stat.Quantile(0.95, stat.Empirical, column, nil)
	}
	return p5, p50, p95
}
