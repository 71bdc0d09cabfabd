package tune

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantfolio/internal/perf"
	"github.com/quantfolio/quantfolio/internal/series"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func daily(name string, pnl ...float64) series.TradeSeries {
	ts := series.TradeSeries{Name: name}
	for i, v := range pnl {
		ts.Points = append(ts.Points, series.Point{Date: day(i), PnL: v})
	}
	return ts
}

// repeating builds n days cycling through the given pattern.
func repeating(name string, n int, pattern ...float64) series.TradeSeries {
	pnl := make([]float64, n)
	for i := range pnl {
		pnl[i] = pattern[i%len(pattern)]
	}
	return daily(name, pnl...)
}

// threePortfolios returns a winner, a mild performer, and a loser.
func threePortfolios() []series.TradeSeries {
	return []series.TradeSeries{
		repeating("winner", 120, 200, -50),
		repeating("mild", 120, 60, -40),
		repeating("loser", 120, -80, 50),
	}
}

func testConfig(alg Algorithm) Config {
	cfg := DefaultConfig()
	cfg.Algorithm = alg
	cfg.Seed = 7
	cfg.MaxIterations = 30
	cfg.MaxEvaluations = 2000
	cfg.GridStep = 0.15
	cfg.Params = perf.DefaultParams()
	return cfg
}

func TestOptimizeRejectsSingleSeries(t *testing.T) {
	_, err := Optimize(context.Background(), []series.TradeSeries{daily("only", 10, -5)}, DefaultConfig())
	require.ErrorIs(t, err, ErrInsufficientPortfolios)
}

func TestOptimizeRejectsInfeasibleBounds(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		bounds Bounds
	}{
		{name: "min exceeds max", n: 2, bounds: Bounds{Min: 0.7, Max: 0.6}},
		{name: "min times count above one", n: 3, bounds: Bounds{Min: 0.4, Max: 0.6}},
		{name: "non-positive min", n: 2, bounds: Bounds{Min: 0, Max: 0.6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.bounds.Validate(tt.n), ErrInfeasibleConstraints)
		})
	}

	// Rejected before any search: the error comes back immediately even
	// with an already-cancelled context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := testConfig(AlgorithmDifferentialEvolution)
	cfg.Bounds = Bounds{Min: 0.4, Max: 0.6}
	_, err := Optimize(ctx, threePortfolios(), cfg)
	require.ErrorIs(t, err, ErrInfeasibleConstraints)
}

func TestOptimizeRejectsUnknownNames(t *testing.T) {
	cfg := testConfig(Algorithm("simulated_annealing"))
	_, err := Optimize(context.Background(), threePortfolios(), cfg)
	require.Error(t, err)

	cfg = testConfig(AlgorithmGridSearch)
	cfg.Objective = Objective("max_fun")
	_, err = Optimize(context.Background(), threePortfolios(), cfg)
	require.Error(t, err)
}

func TestOptimizeRespectsBounds(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmDifferentialEvolution, AlgorithmSLSQP, AlgorithmGridSearch} {
		t.Run(string(alg), func(t *testing.T) {
			cfg := testConfig(alg)
			result, err := Optimize(context.Background(), threePortfolios(), cfg)
			require.NoError(t, err)

			require.Len(t, result.Weights, 3)
			for i, w := range result.Weights {
				assert.GreaterOrEqual(t, w, cfg.Bounds.Min, "weight[%d]", i)
				assert.LessOrEqual(t, w, cfg.Bounds.Max, "weight[%d]", i)
			}
			assert.Equal(t, alg, result.Algorithm)
			assert.NotEmpty(t, result.RunID)
			assert.Positive(t, result.Evaluations)
		})
	}
}

func TestOptimizeGridFavorsWinner(t *testing.T) {
	cfg := testConfig(AlgorithmGridSearch)
	cfg.Objective = ObjectiveMaxCAGR

	result, err := Optimize(context.Background(), threePortfolios(), cfg)
	require.NoError(t, err)
	require.True(t, result.Converged, "an exhaustive enumeration converges by definition")

	// Pure CAGR maximization loads the best historical performer at the
	// upper bound and the loser at the lower bound.
	assert.InDelta(t, cfg.Bounds.Max, result.Weights[0], 1e-9)
	assert.InDelta(t, cfg.Bounds.Min, result.Weights[2], 1e-9)
}

func TestOptimizeDeterministicWithSeed(t *testing.T) {
	cfg := testConfig(AlgorithmDifferentialEvolution)

	first, err := Optimize(context.Background(), threePortfolios(), cfg)
	require.NoError(t, err)
	second, err := Optimize(context.Background(), threePortfolios(), cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Weights, second.Weights)
	assert.Equal(t, first.ObjectiveValue, second.ObjectiveValue)
}

func TestOptimizeBudgetExhaustionReturnsBestSoFar(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig(AlgorithmDifferentialEvolution)
	result, err := Optimize(ctx, threePortfolios(), cfg)
	require.NoError(t, err, "budget exhaustion is an outcome, not an error")

	assert.False(t, result.Converged)
	require.Len(t, result.Weights, 3)
	for _, w := range result.Weights {
		assert.GreaterOrEqual(t, w, cfg.Bounds.Min)
		assert.LessOrEqual(t, w, cfg.Bounds.Max)
	}
}

func TestObjectiveScores(t *testing.T) {
	rec := perf.MetricsRecord{
		CAGR:           0.20,
		Sharpe:         1.5,
		MaxDrawdownPct: -0.10,
		Calmar:         2.0,
		CalmarDefined:  true,
	}

	assert.Equal(t, 0.20, score(ObjectiveMaxCAGR, rec))
	assert.Equal(t, -0.10, score(ObjectiveMinDrawdown, rec))
	assert.Equal(t, 1.5, score(ObjectiveMaxSharpe, rec))
	assert.Equal(t, 2.0, score(ObjectiveMaxCalmar, rec))

	want := blendedCAGRWeight*0.20 + blendedDrawdownWeight/(1.0+0.10) + blendedSharpeBonus*1.5
	assert.InDelta(t, want, score(ObjectiveBlended, rec), 1e-12)

	// Zero drawdown ranks above any finite Calmar of the same growth.
	undefined := perf.MetricsRecord{CAGR: 0.20}
	assert.Greater(t, score(ObjectiveMaxCalmar, undefined), score(ObjectiveMaxCalmar, rec))
}

func TestEvaluatorCountsPasses(t *testing.T) {
	cfg := testConfig(AlgorithmGridSearch)
	eval := newEvaluator(threePortfolios(), cfg)

	_, rec, err := eval.Evaluate([]float64{0.3, 0.3, 0.3})
	require.NoError(t, err)
	assert.Equal(t, 1, eval.evals)
	assert.NotZero(t, rec.TotalPnL)

	_, _, err = eval.Evaluate([]float64{0.3, 0.3})
	require.Error(t, err, "dimension mismatch surfaces from the blender")
	assert.Equal(t, 1, eval.evals, "failed passes don't count")
}
