// Package tune searches for per-strategy exposure multipliers that optimize
// a risk-adjusted objective over the blended series. Three search algorithms
// share one objective-evaluation path: every candidate weight vector costs
// one full blend-and-recompute pass.
package tune

import (
	"errors"
	"fmt"
	"time"

	"github.com/quantfolio/quantfolio/internal/perf"
)

// Objective selects the score a search maximizes.
type Objective string

const (
	ObjectiveMaxCAGR     Objective = "max_cagr"
	ObjectiveMinDrawdown Objective = "min_drawdown"
	ObjectiveMaxSharpe   Objective = "max_sharpe"
	ObjectiveMaxCalmar   Objective = "max_calmar"

	// ObjectiveBlended is the default composite. Pure CAGR maximization
	// concentrates everything in the single best historical performer,
	// which is not a safe recommendation; the composite trades growth off
	// against drawdown with a Sharpe bonus.
	ObjectiveBlended Objective = "blended_return_drawdown"
)

// Algorithm selects the search strategy. The choice is caller-directed;
// failures are never auto-escalated to another algorithm.
type Algorithm string

const (
	// AlgorithmDifferentialEvolution is the global, population-based,
	// stochastic default, suited to multi-modal objective surfaces.
	AlgorithmDifferentialEvolution Algorithm = "differential_evolution"

	// AlgorithmSLSQP is a local gradient-based search from equal weights;
	// faster, but may settle in a local optimum.
	AlgorithmSLSQP Algorithm = "slsqp"

	// AlgorithmGridSearch enumerates a fixed-step lattice within bounds.
	// Deterministic, but impractical beyond ~6 portfolios at fine steps.
	AlgorithmGridSearch Algorithm = "grid_search"
)

var (
	// ErrInfeasibleConstraints indicates the bounds admit no valid weight
	// vector; rejected before any search starts.
	ErrInfeasibleConstraints = errors.New("infeasible constraints")

	// ErrInsufficientPortfolios indicates fewer than two input series;
	// there is nothing to allocate between.
	ErrInsufficientPortfolios = errors.New("insufficient portfolios")
)

// Bounds restrict every multiplier to [Min, Max].
type Bounds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// DefaultBounds returns the standard 5%/60% exposure bounds.
func DefaultBounds() Bounds {
	return Bounds{Min: 0.05, Max: 0.60}
}

// Validate rejects bound shapes that admit no feasible weight vector for n
// portfolios.
func (b Bounds) Validate(n int) error {
	if b.Min <= 0 {
		return fmt.Errorf("%w: min weight %g must be positive", ErrInfeasibleConstraints, b.Min)
	}
	if b.Min > b.Max {
		return fmt.Errorf("%w: min weight %g exceeds max weight %g", ErrInfeasibleConstraints, b.Min, b.Max)
	}
	if float64(n)*b.Min > 1.0 {
		return fmt.Errorf("%w: %d portfolios at min weight %g exceed full allocation", ErrInfeasibleConstraints, n, b.Min)
	}
	return nil
}

// Config controls one optimization run.
type Config struct {
	Objective Objective `yaml:"objective"`
	Algorithm Algorithm `yaml:"algorithm"`
	Bounds    Bounds    `yaml:"bounds"`

	Params perf.Params `yaml:"params"` // Metrics parameters for every candidate evaluation

	Seed           int64   `yaml:"seed"`            // 0 seeds from the clock (stochastic run)
	MaxIterations  int     `yaml:"max_iterations"`  // Generation / major-iteration budget
	MaxEvaluations int     `yaml:"max_evaluations"` // Objective evaluation budget
	PopulationSize int     `yaml:"population_size"` // 0 derives from portfolio count
	GridStep       float64 `yaml:"grid_step"`       // Lattice step for grid search
}

// DefaultConfig returns the standard optimizer configuration.
func DefaultConfig() Config {
	return Config{
		Objective:      ObjectiveBlended,
		Algorithm:      AlgorithmDifferentialEvolution,
		Bounds:         DefaultBounds(),
		Params:         perf.DefaultParams(),
		MaxIterations:  100,
		MaxEvaluations: 5000,
		GridStep:       0.05,
	}
}

// OptimizationResult is the immutable outcome of one run. Converged=false is
// a usable best-effort answer, not an error.
type OptimizationResult struct {
	RunID          string             `json:"run_id"`
	Weights        []float64          `json:"weights"`
	ObjectiveValue float64            `json:"objective_value"`
	Metrics        perf.MetricsRecord `json:"metrics"`
	Objective      Objective          `json:"objective"`
	Algorithm      Algorithm          `json:"algorithm_used"`
	Converged      bool               `json:"converged"`
	Iterations     int                `json:"iterations"`
	Evaluations    int                `json:"evaluations"`
	ElapsedTime    time.Duration      `json:"elapsed_time"`
}
