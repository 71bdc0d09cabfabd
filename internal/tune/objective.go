package tune

import (
	"fmt"
	"math"

	"github.com/quantfolio/quantfolio/internal/blend"
	"github.com/quantfolio/quantfolio/internal/perf"
	"github.com/quantfolio/quantfolio/internal/series"
	"github.com/quantfolio/quantfolio/internal/telemetry"
)

// Composite objective mix: growth, inverse drawdown, Sharpe bonus.
const (
	blendedCAGRWeight     = 0.5
	blendedDrawdownWeight = 0.3
	blendedSharpeBonus    = 0.1
)

// evaluator scores candidate weight vectors. Each Evaluate call performs one
// full blend-and-recompute pass over the input series.
type evaluator struct {
	list      []series.TradeSeries
	params    perf.Params
	objective Objective
	evals     int
}

func newEvaluator(list []series.TradeSeries, cfg Config) *evaluator {
	return &evaluator{list: list, params: cfg.Params, objective: cfg.Objective}
}

// Evaluate blends the series at the given weights, recomputes metrics, and
// maps the record onto the configured objective. Higher is always better.
func (e *evaluator) Evaluate(w []float64) (float64, perf.MetricsRecord, error) {
	blended, err := blend.Blend(e.list, w)
	if err != nil {
		return 0, perf.MetricsRecord{}, err
	}
	rec, err := perf.Compute(blended, e.params)
	if err != nil {
		return 0, perf.MetricsRecord{}, err
	}
	e.evals++
	telemetry.Default().ObjectiveEvaluations.WithLabelValues(string(e.objective)).Inc()
	return score(e.objective, rec), rec, nil
}

// score maps a metrics record onto a maximization objective.
func score(obj Objective, rec perf.MetricsRecord) float64 {
	switch obj {
	case ObjectiveMaxCAGR:
		return rec.CAGR
	case ObjectiveMinDrawdown:
		return -math.Abs(rec.MaxDrawdownPct)
	case ObjectiveMaxSharpe:
		return rec.Sharpe
	case ObjectiveMaxCalmar:
		if !rec.CalmarDefined {
			// Zero drawdown: rank by growth, above any finite Calmar of
			// equal sign.
			return rec.CAGR * 1e3
		}
		return rec.Calmar
	default:
		inverseDD := 1.0 / (1.0 + math.Abs(rec.MaxDrawdownPct))
		return blendedCAGRWeight*rec.CAGR +
			blendedDrawdownWeight*inverseDD +
			blendedSharpeBonus*rec.Sharpe
	}
}

// validObjective reports whether the objective name is known.
func validObjective(obj Objective) error {
	switch obj {
	case ObjectiveMaxCAGR, ObjectiveMinDrawdown, ObjectiveMaxSharpe, ObjectiveMaxCalmar, ObjectiveBlended:
		return nil
	default:
		return fmt.Errorf("unknown objective %q", obj)
	}
}
