// Package perf computes risk/return metrics over a single account curve.
// Compute is a pure function: identical inputs always produce identical
// records, and no shared state is touched.
package perf

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/quantfolio/quantfolio/internal/series"
)

// Params carries the analysis parameters for one Compute call. Callers pass
// an explicit value per call; there is no process-wide default state, so
// concurrent calls with different parameters never interfere.
type Params struct {
	StartingCapital    float64 `yaml:"starting_capital"`      // Initial account equity (must be > 0)
	RiskFreeRate       float64 `yaml:"risk_free_rate"`        // Annual decimal, e.g. 0.043
	DailyRiskFreeRate  float64 `yaml:"daily_risk_free_rate"`  // Pre-derived daily equivalent for the Sharpe numerator
	TradingDaysPerYear int     `yaml:"trading_days_per_year"` // Annualization factor (default: 252)
	SMAWindow          int     `yaml:"sma_window"`            // Equity SMA window for the trading filter
	UseTradingFilter   bool    `yaml:"use_trading_filter"`    // Gate daily P/L on equity vs its SMA
}

// DefaultParams returns the standard analysis parameters.
func DefaultParams() Params {
	return Params{
		StartingCapital:    100000,
		RiskFreeRate:       0.043,
		DailyRiskFreeRate:  0.043 / 252,
		TradingDaysPerYear: 252,
		SMAWindow:          20,
		UseTradingFilter:   false,
	}
}

// Validate rejects parameter combinations that cannot support a computation.
func (p Params) Validate() error {
	if p.StartingCapital <= 0 {
		return fmt.Errorf("starting capital must be positive, got %.2f", p.StartingCapital)
	}
	if p.TradingDaysPerYear <= 0 {
		return fmt.Errorf("trading days per year must be positive, got %d", p.TradingDaysPerYear)
	}
	if p.UseTradingFilter && p.SMAWindow < 2 {
		return fmt.Errorf("sma window must be at least 2 when the trading filter is enabled, got %d", p.SMAWindow)
	}
	return nil
}

// MetricsRecord is the flat, immutable result of one Compute call.
type MetricsRecord struct {
	// Core P&L metrics
	TotalPnL          float64 `json:"total_pnl"`           // Sum of daily P/L
	TotalReturnPct    float64 `json:"total_return_pct"`    // Total return over starting capital
	CAGR              float64 `json:"cagr"`                // Annualized geometric growth rate
	FinalAccountValue float64 `json:"final_account_value"` // Equity at the last row

	// Risk-adjusted metrics
	AnnualVolatility float64 `json:"annual_volatility"` // Stddev of daily returns, annualized
	Sharpe           float64 `json:"sharpe"`            // Annualized Sharpe ratio
	Sortino          float64 `json:"sortino"`           // Downside-deviation Sharpe variant
	Calmar           float64 `json:"calmar"`            // CAGR / |max drawdown %|
	CalmarDefined    bool    `json:"calmar_defined"`    // False when max drawdown is zero
	ZeroVariance     bool    `json:"zero_variance"`     // True when daily returns have zero stddev

	// Drawdown (peak-to-trough, never decline-from-starting-capital)
	MaxDrawdown    float64 `json:"max_drawdown"`     // Largest peak-to-trough decline in dollars (<= 0)
	MaxDrawdownPct float64 `json:"max_drawdown_pct"` // Largest decline relative to the running peak (<= 0)

	// Trade statistics (zero-P/L rows treated as non-trading days)
	WinRate        float64 `json:"win_rate"`         // Wins over non-zero rows
	ProfitFactor   float64 `json:"profit_factor"`    // Gross profit over gross loss
	AvgTradeReturn float64 `json:"avg_trade_return"` // Mean P/L across non-zero rows

	// Sample descriptors
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TradingDays int       `json:"trading_days"`  // Rows with non-zero P/L
	TotalRows   int       `json:"total_rows"`    // All rows in the series
	SkippedRows int       `json:"skipped_rows"`  // Return steps dropped as non-computable
	FilteredPnL int       `json:"filtered_rows"` // Rows zeroed by the SMA trading filter
}

// Compute derives a MetricsRecord from one trade series. It rejects empty or
// out-of-order input and never mutates its arguments.
func Compute(ts series.TradeSeries, p Params) (MetricsRecord, error) {
	if err := ts.Validate(); err != nil {
		return MetricsRecord{}, err
	}
	if err := p.Validate(); err != nil {
		return MetricsRecord{}, err
	}

	filtered := 0
	if p.UseTradingFilter {
		ts, filtered = applyTradingFilter(ts, p)
	}

	curve := series.BuildCurve(ts, p.StartingCapital)
	rec := MetricsRecord{
		StartDate:   ts.Start(),
		EndDate:     ts.End(),
		TotalRows:   ts.Len(),
		FilteredPnL: filtered,
	}

	rec.TotalPnL = ts.TotalPnL()
	rec.FinalAccountValue = curve.FinalEquity()
	rec.TotalReturnPct = rec.TotalPnL / p.StartingCapital

	// CAGR over the calendar span, not the row count.
	spanDays := float64(ts.SpanDays())
	if rec.FinalAccountValue > 0 {
		rec.CAGR = math.Pow(rec.FinalAccountValue/p.StartingCapital, 365.25/spanDays) - 1
	} else {
		// A non-positive final equity has no geometric growth rate; report
		// total ruin rather than a complex power.
		rec.CAGR = -1
	}

	returns, skipped := curve.DailyReturns()
	rec.SkippedRows = skipped
	computeRiskMetrics(returns, p, &rec)
	computeDrawdown(curve, &rec)
	computeTradeStats(ts, &rec)

	if rec.MaxDrawdownPct != 0 {
		rec.Calmar = rec.CAGR / math.Abs(rec.MaxDrawdownPct)
		rec.CalmarDefined = true
	}

	return rec, nil
}

// computeRiskMetrics fills volatility, Sharpe and Sortino from daily returns.
func computeRiskMetrics(returns []float64, p Params, rec *MetricsRecord) {
	if len(returns) < 2 {
		rec.ZeroVariance = true
		return
	}

	mean := stat.Mean(returns, nil)
	sd := stat.StdDev(returns, nil)
	annual := math.Sqrt(float64(p.TradingDaysPerYear))

	rec.AnnualVolatility = sd * annual

	if sd == 0 {
		// Degenerate case: flag it distinctly instead of propagating NaN.
		rec.ZeroVariance = true
		rec.Sharpe = 0
	} else {
		rec.Sharpe = (mean - p.DailyRiskFreeRate) / sd * annual
	}

	var downSq float64
	downCount := 0
	for _, r := range returns {
		if r < 0 {
			downSq += r * r
			downCount++
		}
	}
	if downCount > 0 {
		downDev := math.Sqrt(downSq / float64(downCount))
		if downDev > 0 {
			rec.Sortino = (mean - p.DailyRiskFreeRate) / downDev * annual
		}
	}
}

// computeDrawdown fills the peak-relative drawdown metrics. drawdown[i] is
// measured against the running peak max(equity[0..i]), with the starting
// capital seeding the peak so a first-row loss still registers.
func computeDrawdown(curve series.AccountCurve, rec *MetricsRecord) {
	peak := curve.StartingCapital
	var maxDD, maxDDPct float64
	for _, cp := range curve.Points {
		if cp.Equity > peak {
			peak = cp.Equity
		}
		dd := cp.Equity - peak
		if dd < maxDD {
			maxDD = dd
		}
		if peak > 0 {
			if pct := dd / peak; pct < maxDDPct {
				maxDDPct = pct
			}
		}
	}
	rec.MaxDrawdown = maxDD
	rec.MaxDrawdownPct = maxDDPct
}

// computeTradeStats fills win rate, profit factor and average trade return.
// Zero-P/L rows are non-trading days and are excluded from the denominators;
// this zero-exclusion convention applies to trade statistics and correlation
// only, never to returns-based metrics.
func computeTradeStats(ts series.TradeSeries, rec *MetricsRecord) {
	var wins, trades int
	var grossProfit, grossLoss, total float64
	for _, p := range ts.Points {
		if p.PnL == 0 {
			continue
		}
		trades++
		total += p.PnL
		if p.PnL > 0 {
			wins++
			grossProfit += p.PnL
		} else {
			grossLoss += -p.PnL
		}
	}
	rec.TradingDays = trades
	if trades > 0 {
		rec.WinRate = float64(wins) / float64(trades)
		rec.AvgTradeReturn = total / float64(trades)
	}
	if grossLoss > 0 {
		rec.ProfitFactor = grossProfit / grossLoss
	}
}

// applyTradingFilter zeroes the P/L of days where the prior equity sits
// below its simple moving average, simulating a trend filter. The returned
// series has the same dates and length as the input.
func applyTradingFilter(ts series.TradeSeries, p Params) (series.TradeSeries, int) {
	out := series.TradeSeries{Name: ts.Name, Points: make([]series.Point, len(ts.Points))}
	window := make([]float64, 0, p.SMAWindow)
	equity := p.StartingCapital
	zeroed := 0

	for i, pt := range ts.Points {
		take := true
		if len(window) == p.SMAWindow {
			var sum float64
			for _, e := range window {
				sum += e
			}
			take = equity >= sum/float64(p.SMAWindow)
		}

		out.Points[i] = series.Point{Date: pt.Date}
		if take {
			out.Points[i].PnL = pt.PnL
			equity += pt.PnL
		} else {
			zeroed++
		}

		window = append(window, equity)
		if len(window) > p.SMAWindow {
			window = window[1:]
		}
	}
	return out, zeroed
}
