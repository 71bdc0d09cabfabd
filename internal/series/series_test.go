package series

import (
	"errors"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func daily(name string, pnl ...float64) TradeSeries {
	ts := TradeSeries{Name: name}
	for i, v := range pnl {
		ts.Points = append(ts.Points, Point{Date: day(i), PnL: v})
	}
	return ts
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		series  TradeSeries
		wantErr error
	}{
		{
			name:    "empty series",
			series:  TradeSeries{Name: "empty"},
			wantErr: ErrInsufficientData,
		},
		{
			name:   "single row",
			series: daily("one", 100),
		},
		{
			name:   "monotonic dates",
			series: daily("ok", 100, -50, 25),
		},
		{
			name: "duplicate dates allowed",
			series: TradeSeries{Name: "dup", Points: []Point{
				{Date: day(0), PnL: 10},
				{Date: day(0), PnL: -5},
			}},
		},
		{
			name: "out of order dates",
			series: TradeSeries{Name: "bad", Points: []Point{
				{Date: day(1), PnL: 10},
				{Date: day(0), PnL: -5},
			}},
			wantErr: ErrInvalidSeries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSpanDays(t *testing.T) {
	if got := daily("one", 5).SpanDays(); got != 1 {
		t.Errorf("single row span = %d, want 1", got)
	}
	if got := daily("ten", make([]float64, 10)...).SpanDays(); got != 9 {
		t.Errorf("ten-row span = %d, want 9", got)
	}
}

func TestSlice(t *testing.T) {
	ts := daily("s", 1, 2, 3, 4, 5)

	window := ts.Slice(day(1), day(3))
	if window.Len() != 3 {
		t.Fatalf("window length = %d, want 3", window.Len())
	}
	if window.Points[0].PnL != 2 || window.Points[2].PnL != 4 {
		t.Errorf("window holds wrong rows: %+v", window.Points)
	}

	// Slicing must not alias the source.
	window.Points[0].PnL = 99
	if ts.Points[1].PnL != 2 {
		t.Error("slice mutated the source series")
	}
}

func TestUnionDates(t *testing.T) {
	a := TradeSeries{Name: "a", Points: []Point{
		{Date: day(0), PnL: 1},
		{Date: day(2), PnL: 1},
	}}
	b := TradeSeries{Name: "b", Points: []Point{
		{Date: day(1), PnL: 1},
		{Date: day(2), PnL: 1},
	}}

	dates := UnionDates([]TradeSeries{a, b})
	if len(dates) != 3 {
		t.Fatalf("union size = %d, want 3", len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			t.Fatal("union dates not sorted")
		}
	}
}

func TestBuildCurve(t *testing.T) {
	ts := daily("c", 100, -50, 25)
	curve := BuildCurve(ts, 1000)

	want := []float64{1100, 1050, 1075}
	for i, w := range want {
		if curve.Points[i].Equity != w {
			t.Errorf("equity[%d] = %.2f, want %.2f", i, curve.Points[i].Equity, w)
		}
	}
	if curve.FinalEquity() != 1075 {
		t.Errorf("final equity = %.2f, want 1075", curve.FinalEquity())
	}
}

func TestDailyReturnsSkipsZeroEquity(t *testing.T) {
	ts := daily("z", -1000, 50)
	curve := BuildCurve(ts, 1000) // equity hits exactly zero on day one

	returns, skipped := curve.DailyReturns()
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(returns) != 1 {
		t.Errorf("returns length = %d, want 1", len(returns))
	}
}
