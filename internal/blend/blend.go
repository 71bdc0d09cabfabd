// Package blend combines multiple trade series into one weighted series.
// Weights are positive scale factors (1.0 = full exposure), not normalized
// fractions; their sum is unconstrained.
package blend

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quantfolio/quantfolio/internal/series"
)

var (
	// ErrDimensionMismatch indicates the weight vector length differs from
	// the series count.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidWeight indicates a zero or negative multiplier.
	ErrInvalidWeight = errors.New("invalid weight")
)

// Blend outer-joins the series by date and sums weight-scaled P/L per date.
// A date present in one series but absent in another contributes zero for
// the absent one: absence means no trade that day, not missing data.
func Blend(list []series.TradeSeries, weights []float64) (series.TradeSeries, error) {
	if len(weights) != len(list) {
		return series.TradeSeries{}, fmt.Errorf("%w: %d weights for %d series",
			ErrDimensionMismatch, len(weights), len(list))
	}
	for i, w := range weights {
		if w <= 0 {
			return series.TradeSeries{}, fmt.Errorf("%w: weight[%d] = %g, multipliers must be positive",
				ErrInvalidWeight, i, w)
		}
	}
	for _, ts := range list {
		if err := ts.Validate(); err != nil {
			return series.TradeSeries{}, err
		}
	}

	byDate := make(map[time.Time]float64)
	for k, ts := range list {
		for _, p := range ts.Points {
			byDate[p.Date] += weights[k] * p.PnL
		}
	}

	out := series.TradeSeries{Name: blendName(list)}
	for _, d := range series.UnionDates(list) {
		out.Points = append(out.Points, series.Point{Date: d, PnL: byDate[d]})
	}
	return out, nil
}

func blendName(list []series.TradeSeries) string {
	names := make([]string, len(list))
	for i, ts := range list {
		names[i] = ts.Name
	}
	return "blend(" + strings.Join(names, "+") + ")"
}
