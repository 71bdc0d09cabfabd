package tune

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantfolio/quantfolio/internal/series"
	"github.com/quantfolio/quantfolio/internal/telemetry"
)

// Optimize searches for the weight vector maximizing cfg.Objective over the
// blended series. Configuration errors are rejected before any search work.
// Budget exhaustion and cancellation are not errors: the best candidate
// found so far comes back with Converged=false.
func Optimize(ctx context.Context, list []series.TradeSeries, cfg Config) (OptimizationResult, error) {
	start := time.Now()

	if len(list) < 2 {
		return OptimizationResult{}, fmt.Errorf("%w: got %d series, need at least 2",
			ErrInsufficientPortfolios, len(list))
	}
	if err := cfg.Bounds.Validate(len(list)); err != nil {
		return OptimizationResult{}, err
	}
	if err := validObjective(cfg.Objective); err != nil {
		return OptimizationResult{}, err
	}
	for _, ts := range list {
		if err := ts.Validate(); err != nil {
			return OptimizationResult{}, err
		}
	}
	if err := cfg.Params.Validate(); err != nil {
		return OptimizationResult{}, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	eval := newEvaluator(list, cfg)
	n := len(list)

	var out searchOutcome
	switch cfg.Algorithm {
	case AlgorithmDifferentialEvolution:
		out = runDifferentialEvolution(ctx, eval, n, cfg, seed)
	case AlgorithmSLSQP:
		out = runLocalSearch(ctx, eval, n, cfg)
	case AlgorithmGridSearch:
		out = runGridSearch(ctx, eval, n, cfg)
	default:
		return OptimizationResult{}, fmt.Errorf("unknown algorithm %q", cfg.Algorithm)
	}

	if out.weights == nil {
		// The search never completed a single evaluation; the caller still
		// gets a usable vector at the lower bound.
		out.weights = make([]float64, n)
		for i := range out.weights {
			out.weights[i] = cfg.Bounds.Min
		}
	}

	// One clean re-evaluation of the incumbent produces the reported
	// metrics; the search's own bookkeeping is not trusted for the final
	// record.
	finalScore, rec, err := eval.Evaluate(out.weights)
	if err != nil {
		return OptimizationResult{}, fmt.Errorf("evaluating final weights: %w", err)
	}

	elapsed := time.Since(start)
	telemetry.Default().OptimizeDuration.
		WithLabelValues(string(cfg.Algorithm), string(cfg.Objective)).
		Observe(elapsed.Seconds())

	return OptimizationResult{
		RunID:          uuid.NewString(),
		Weights:        out.weights,
		ObjectiveValue: finalScore,
		Metrics:        rec,
		Objective:      cfg.Objective,
		Algorithm:      cfg.Algorithm,
		Converged:      out.converged,
		Iterations:     out.iterations,
		Evaluations:    eval.evals,
		ElapsedTime:    elapsed,
	}, nil
}
