package tune

import (
	"context"
	"math"

	gopt "gonum.org/v1/gonum/optimize"
)

// Penalty slope applied outside the feasible box. The quasi-Newton method is
// unconstrained, so bounds are enforced by a quadratic exterior penalty plus
// a final clamp of the incumbent.
const boundPenaltyWeight = 1e3

// runLocalSearch performs a single-start local quasi-Newton search from the
// equal-weight point. Faster than the global search but may settle into a
// local optimum of the objective surface. The incumbent is tracked outside
// the minimizer, so even a line-search failure still yields the best
// candidate visited with converged=false.
func runLocalSearch(ctx context.Context, eval *evaluator, n int, cfg Config) searchOutcome {
	b := cfg.Bounds

	x0 := make([]float64, n)
	for i := range x0 {
		x0[i] = clamp(1.0/float64(n), b.Min, b.Max)
	}

	out := searchOutcome{weights: append([]float64(nil), x0...), score: math.Inf(-1)}

	objective := func(x []float64) float64 {
		select {
		case <-ctx.Done():
			return math.Inf(1)
		default:
		}
		w := make([]float64, n)
		penalty := 0.0
		for i, v := range x {
			w[i] = clamp(v, b.Min, b.Max)
			d := v - w[i]
			penalty += boundPenaltyWeight * d * d
		}
		s, _, err := eval.Evaluate(w)
		if err != nil {
			return math.Inf(1)
		}
		if s > out.score {
			out.weights = w
			out.score = s
		}
		return -s + penalty
	}

	settings := &gopt.Settings{
		MajorIterations: cfg.MaxIterations,
		FuncEvaluations: cfg.MaxEvaluations,
		Converger: &gopt.FunctionConverge{
			Absolute:   1e-10,
			Iterations: 20,
		},
	}

	// Gradients come from finite differences; the objective has no
	// analytic form.
	result, err := gopt.Minimize(gopt.Problem{Func: objective}, x0, settings, &gopt.BFGS{})
	out.iterations = eval.evals
	if err != nil || result == nil {
		return out
	}
	out.iterations = result.Stats.MajorIterations

	switch result.Status {
	case gopt.Success, gopt.FunctionThreshold, gopt.FunctionConvergence,
		gopt.GradientThreshold, gopt.StepConvergence, gopt.MethodConverge:
		out.converged = true
	}
	return out
}
