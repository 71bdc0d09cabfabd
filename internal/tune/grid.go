package tune

import (
	"context"
	"math"
)

// runGridSearch exhaustively evaluates every lattice point with the given
// step inside the bounds. Deterministic and reproducible; the lattice grows
// as points^portfolios, so fine steps are impractical beyond a handful of
// portfolios. A cancelled context stops enumeration and returns the best
// point visited with converged=false.
func runGridSearch(ctx context.Context, eval *evaluator, n int, cfg Config) searchOutcome {
	b := cfg.Bounds
	step := cfg.GridStep
	if step <= 0 {
		step = 0.05
	}

	levels := gridLevels(b, step)
	out := searchOutcome{score: math.Inf(-1)}

	w := make([]float64, n)
	complete := enumerate(ctx, eval, levels, w, 0, cfg, &out)
	out.converged = complete
	return out
}

// gridLevels expands [Min, Max] into lattice values, always including Max so
// the boundary is searched even when the span is not a step multiple.
func gridLevels(b Bounds, step float64) []float64 {
	var levels []float64
	for v := b.Min; v < b.Max-1e-12; v += step {
		levels = append(levels, v)
	}
	return append(levels, b.Max)
}

// enumerate fills w depth-first and scores each complete vector. Returns
// false if the walk stopped early on cancellation or evaluation budget.
func enumerate(ctx context.Context, eval *evaluator, levels []float64, w []float64, depth int, cfg Config, out *searchOutcome) bool {
	if depth == len(w) {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if cfg.MaxEvaluations > 0 && eval.evals >= cfg.MaxEvaluations {
			return false
		}
		out.iterations++
		if s := evalOrWorst(eval, w); s > out.score {
			out.score = s
			out.weights = append([]float64(nil), w...)
		}
		return true
	}
	for _, v := range levels {
		w[depth] = v
		if !enumerate(ctx, eval, levels, w, depth+1, cfg, out) {
			return false
		}
	}
	return true
}
