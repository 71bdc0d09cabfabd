package series

import "time"

// CurvePoint is one equity observation on an account curve.
type CurvePoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// AccountCurve is the equity path derived from a TradeSeries and a starting
// capital. It is a transient value: built, read, and discarded within one
// analytics call, never persisted here.
type AccountCurve struct {
	StartingCapital float64      `json:"starting_capital"`
	Points          []CurvePoint `json:"points"`
}

// BuildCurve accumulates a trade series into an account curve starting at
// startingCapital. equity[i] = equity[i-1] + pnl[i].
func BuildCurve(ts TradeSeries, startingCapital float64) AccountCurve {
	curve := AccountCurve{
		StartingCapital: startingCapital,
		Points:          make([]CurvePoint, len(ts.Points)),
	}
	equity := startingCapital
	for i, p := range ts.Points {
		equity += p.PnL
		curve.Points[i] = CurvePoint{Date: p.Date, Equity: equity}
	}
	return curve
}

// FinalEquity returns the last equity value, or the starting capital for an
// empty curve.
func (c AccountCurve) FinalEquity() float64 {
	if len(c.Points) == 0 {
		return c.StartingCapital
	}
	return c.Points[len(c.Points)-1].Equity
}

// DailyReturns computes equity[i]/equity[i-1] - 1 for each step, including
// the step from starting capital to the first row. Steps whose prior equity
// is zero are not computable; they are skipped and counted so callers can
// detect the pathological case instead of receiving NaN.
func (c AccountCurve) DailyReturns() (returns []float64, skipped int) {
	prev := c.StartingCapital
	returns = make([]float64, 0, len(c.Points))
	for _, p := range c.Points {
		if prev == 0 {
			skipped++
			prev = p.Equity
			continue
		}
		returns = append(returns, p.Equity/prev-1)
		prev = p.Equity
	}
	return returns, skipped
}
