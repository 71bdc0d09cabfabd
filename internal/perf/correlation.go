package perf

import (
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/quantfolio/quantfolio/internal/series"
)

// CorrelationMatrix computes pairwise Pearson correlations of daily P/L
// across the given series. Alignment is by date; a pair contributes a date
// only when both series traded that day (zero-P/L rows are non-trading days
// and are excluded, matching the win-rate convention). Pairs with fewer than
// two shared trading days report zero correlation.
func CorrelationMatrix(list []series.TradeSeries) *mat.SymDense {
	n := len(list)
	corr := mat.NewSymDense(n, nil)

	byDate := make([]map[time.Time]float64, n)
	for i, ts := range list {
		byDate[i] = make(map[time.Time]float64, ts.Len())
		for _, p := range ts.Points {
			if p.PnL != 0 {
				byDate[i][p.Date] = p.PnL
			}
		}
	}

	for i := 0; i < n; i++ {
		corr.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			var xs, ys []float64
			for d, x := range byDate[i] {
				if y, ok := byDate[j][d]; ok {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			if len(xs) < 2 {
				continue
			}
			c := stat.Correlation(xs, ys, nil)
			corr.SetSym(i, j, c)
		}
	}
	return corr
}
