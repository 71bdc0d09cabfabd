// Package series defines the trade series and account curve types shared by
// every analytics component. A TradeSeries is a read-only snapshot of daily
// P/L observations; an AccountCurve is the equity path derived from it.
package series

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrInsufficientData indicates the series has too few rows to support
	// the requested statistic.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidSeries indicates the series violates the non-decreasing
	// date invariant.
	ErrInvalidSeries = errors.New("invalid series")
)

// Point is one daily P/L observation.
type Point struct {
	Date time.Time `json:"date"`
	PnL  float64   `json:"pnl"`
}

// TradeSeries is an ordered sequence of daily P/L observations for one
// strategy. Dates must be non-decreasing; non-trading days may be absent
// entirely or present with zero P/L.
type TradeSeries struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Len returns the number of rows in the series.
func (ts TradeSeries) Len() int { return len(ts.Points) }

// Validate checks that the series is non-empty and dates are non-decreasing.
func (ts TradeSeries) Validate() error {
	if len(ts.Points) == 0 {
		return fmt.Errorf("%w: series %q has no rows", ErrInsufficientData, ts.Name)
	}
	for i := 1; i < len(ts.Points); i++ {
		if ts.Points[i].Date.Before(ts.Points[i-1].Date) {
			return fmt.Errorf("%w: series %q dates out of order at row %d (%s follows %s)",
				ErrInvalidSeries, ts.Name, i,
				ts.Points[i].Date.Format("2006-01-02"),
				ts.Points[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Start returns the first date in the series. Zero time for an empty series.
func (ts TradeSeries) Start() time.Time {
	if len(ts.Points) == 0 {
		return time.Time{}
	}
	return ts.Points[0].Date
}

// End returns the last date in the series. Zero time for an empty series.
func (ts TradeSeries) End() time.Time {
	if len(ts.Points) == 0 {
		return time.Time{}
	}
	return ts.Points[len(ts.Points)-1].Date
}

// SpanDays returns the calendar-day span between the first and last row.
// A single-row series spans one day so annualization stays well-defined.
func (ts TradeSeries) SpanDays() int {
	if len(ts.Points) < 2 {
		return 1
	}
	days := int(ts.End().Sub(ts.Start()).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}

// Slice returns the sub-series whose dates fall within [start, end]
// inclusive. The returned series shares no backing storage with the
// receiver, so callers may hold it past the receiver's lifetime.
func (ts TradeSeries) Slice(start, end time.Time) TradeSeries {
	out := TradeSeries{Name: ts.Name}
	for _, p := range ts.Points {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}

// PnL returns the raw P/L column.
func (ts TradeSeries) PnL() []float64 {
	out := make([]float64, len(ts.Points))
	for i, p := range ts.Points {
		out[i] = p.PnL
	}
	return out
}

// TotalPnL returns the sum of the P/L column.
func (ts TradeSeries) TotalPnL() float64 {
	var total float64
	for _, p := range ts.Points {
		total += p.PnL
	}
	return total
}

// UnionDates returns the sorted union of all trade dates across the given
// series. Used by the blender for outer-join alignment.
func UnionDates(list []TradeSeries) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, ts := range list {
		for _, p := range ts.Points {
			seen[p.Date] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
