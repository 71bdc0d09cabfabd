package tune

import (
	"context"
	"math"
	"math/rand"
)

// Differential evolution control parameters (Storn-Price DE/rand/1/bin).
const (
	deMutationFactor   = 0.8
	deCrossoverRate    = 0.9
	deStallTolerance   = 1e-9
	deStallGenerations = 15
)

// searchOutcome is the shared result shape of the three search backends.
type searchOutcome struct {
	weights    []float64
	score      float64
	iterations int
	converged  bool
}

// runDifferentialEvolution performs a global population-based search within
// bounds. The run is deterministic for a fixed seed. On budget exhaustion or
// context cancellation the best member found so far is returned cleanly with
// converged=false.
func runDifferentialEvolution(ctx context.Context, eval *evaluator, n int, cfg Config, seed int64) searchOutcome {
	rng := rand.New(rand.NewSource(seed))
	b := cfg.Bounds

	np := cfg.PopulationSize
	if np <= 0 {
		np = 10 * n
		if np < 15 {
			np = 15
		}
	}

	pop := make([][]float64, np)
	scores := make([]float64, np)
	for i := range pop {
		pop[i] = randomVector(rng, n, b)
		scores[i] = evalOrWorst(eval, pop[i])
	}

	best, bestScore := bestMember(pop, scores)
	out := searchOutcome{weights: best, score: bestScore}

	stall := 0
	for gen := 0; gen < cfg.MaxIterations; gen++ {
		select {
		case <-ctx.Done():
			return out
		default:
		}
		if cfg.MaxEvaluations > 0 && eval.evals >= cfg.MaxEvaluations {
			return out
		}

		improvedBest := false
		for i := 0; i < np; i++ {
			trial := deTrial(rng, pop, i, b)
			trialScore := evalOrWorst(eval, trial)
			if trialScore >= scores[i] {
				pop[i] = trial
				scores[i] = trialScore
				if trialScore > out.score+deStallTolerance {
					out.weights = trial
					out.score = trialScore
					improvedBest = true
				}
			}
		}

		out.iterations = gen + 1
		if improvedBest {
			stall = 0
		} else {
			stall++
			if stall >= deStallGenerations {
				out.converged = true
				return out
			}
		}
	}
	// Iteration budget exhausted without stabilizing.
	return out
}

// deTrial builds one DE/rand/1/bin trial vector for population member i.
func deTrial(rng *rand.Rand, pop [][]float64, i int, b Bounds) []float64 {
	np := len(pop)
	n := len(pop[i])

	// Three distinct members, all different from i.
	var r1, r2, r3 int
	for {
		r1, r2, r3 = rng.Intn(np), rng.Intn(np), rng.Intn(np)
		if r1 != i && r2 != i && r3 != i && r1 != r2 && r2 != r3 && r1 != r3 {
			break
		}
	}

	trial := make([]float64, n)
	forced := rng.Intn(n)
	for j := 0; j < n; j++ {
		if j == forced || rng.Float64() < deCrossoverRate {
			trial[j] = pop[r1][j] + deMutationFactor*(pop[r2][j]-pop[r3][j])
		} else {
			trial[j] = pop[i][j]
		}
		trial[j] = clamp(trial[j], b.Min, b.Max)
	}
	return trial
}

// evalOrWorst scores a candidate, treating evaluation failure as the worst
// possible member so the search routes around it.
func evalOrWorst(eval *evaluator, w []float64) float64 {
	s, _, err := eval.Evaluate(w)
	if err != nil {
		return math.Inf(-1)
	}
	return s
}

func randomVector(rng *rand.Rand, n int, b Bounds) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = b.Min + rng.Float64()*(b.Max-b.Min)
	}
	return w
}

func bestMember(pop [][]float64, scores []float64) ([]float64, float64) {
	bi := 0
	for i := 1; i < len(pop); i++ {
		if scores[i] > scores[bi] {
			bi = i
		}
	}
	best := make([]float64, len(pop[bi]))
	copy(best, pop[bi])
	return best, scores[bi]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
