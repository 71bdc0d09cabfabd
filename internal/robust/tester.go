// Package robust measures how stable a strategy's metrics are across
// randomly sampled sub-periods. Windows are drawn with replacement and may
// overlap; each valid window gets a full metrics recomputation, and the
// spread of each metric is compared against its full-history value.
package robust

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/quantfolio/quantfolio/internal/perf"
	"github.com/quantfolio/quantfolio/internal/series"
	"github.com/quantfolio/quantfolio/internal/telemetry"
)

// ErrInsufficientHistory indicates the dataset is shorter than one sample
// period, so no valid window start exists.
var ErrInsufficientHistory = errors.New("insufficient history")

// Tracked metric names.
const (
	MetricCAGR         = "cagr"
	MetricSharpe       = "sharpe"
	MetricMaxDrawdown  = "max_drawdown_pct"
	MetricVolatility   = "annual_volatility"
	MetricWinRate      = "win_rate"
	MetricProfitFactor = "profit_factor"
)

// scoreWeights are the fixed contributions to the aggregate robustness
// score. Profit factor is tracked descriptively but does not score.
var scoreWeights = map[string]float64{
	MetricCAGR:        0.25,
	MetricSharpe:      0.20,
	MetricMaxDrawdown: 0.25,
	MetricVolatility:  0.15,
	MetricWinRate:     0.15,
}

// Config controls one robustness test.
type Config struct {
	NumPeriods       int         `yaml:"num_periods"`        // Windows to draw (default: 10)
	PeriodLengthDays int         `yaml:"period_length_days"` // Calendar length of each window (default: 252)
	MinTradingDays   int         `yaml:"min_trading_days"`   // Row-count floor for a usable window (default: 50)
	Seed             int64       `yaml:"seed"`               // 0 seeds from the clock
	Params           perf.Params `yaml:"params"`             // Metrics parameters per window
}

// DefaultConfig returns the standard robustness test configuration.
func DefaultConfig() Config {
	return Config{
		NumPeriods:       10,
		PeriodLengthDays: 252,
		MinTradingDays:   50,
		Params:           perf.DefaultParams(),
	}
}

// Period is the metrics record of one sampled window.
type Period struct {
	Start   time.Time          `json:"start_date"`
	End     time.Time          `json:"end_date"`
	Metrics perf.MetricsRecord `json:"metrics"`
}

// MetricStats describes one metric's spread across the valid periods.
type MetricStats struct {
	Max              float64 `json:"max"`
	Min              float64 `json:"min"`
	Mean             float64 `json:"mean"`
	Median           float64 `json:"median"`
	StdDev           float64 `json:"std_dev"`
	Q1               float64 `json:"q1"`
	Q3               float64 `json:"q3"`
	FullDatasetValue float64 `json:"full_dataset_value"`
	ComponentScore   float64 `json:"component_score"`
	Scored           bool    `json:"scored"` // False when the full-dataset value is exactly zero
}

// Summary aggregates one robustness test invocation.
type Summary struct {
	RunID            string                 `json:"run_id"`
	RequestedPeriods int                    `json:"requested_periods"`
	ValidPeriods     int                    `json:"valid_periods"`
	DiscardedPeriods int                    `json:"discarded_periods"`
	Metrics          map[string]MetricStats `json:"metrics"`
	RobustnessScore  float64                `json:"robustness_score"`
	FullMetrics      perf.MetricsRecord     `json:"full_metrics"`
}

// Test draws cfg.NumPeriods random windows from the series, recomputes
// metrics per window, and scores how closely their mean tracks the
// full-history value. A window with too few rows is redrawn once, then
// skipped; the test proceeds with the windows that remain.
func Test(ctx context.Context, ts series.TradeSeries, cfg Config) (Summary, []Period, error) {
	start := time.Now()
	defer func() {
		telemetry.Default().RobustnessDuration.Observe(time.Since(start).Seconds())
	}()

	if err := ts.Validate(); err != nil {
		return Summary{}, nil, err
	}
	if cfg.NumPeriods < 1 {
		cfg.NumPeriods = 1
	}
	if cfg.PeriodLengthDays < 1 {
		return Summary{}, nil, fmt.Errorf("period length must be positive, got %d", cfg.PeriodLengthDays)
	}

	full, err := perf.Compute(ts, cfg.Params)
	if err != nil {
		return Summary{}, nil, err
	}

	// Valid starts range over [dataset start, dataset end - period length].
	// A dataset spanning exactly one period has no room to place a window
	// anywhere but its origin, which leaves nothing to sample.
	lastStart := ts.End().AddDate(0, 0, -cfg.PeriodLengthDays)
	startRangeDays := int(lastStart.Sub(ts.Start()).Hours() / 24)
	if startRangeDays <= 0 {
		return Summary{}, nil, fmt.Errorf("%w: %d-day dataset cannot hold a %d-day window",
			ErrInsufficientHistory, ts.SpanDays(), cfg.PeriodLengthDays)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	collector := telemetry.Default().RobustnessWindows
	var periods []Period
	discarded := 0
	for i := 0; i < cfg.NumPeriods; i++ {
		select {
		case <-ctx.Done():
			i = cfg.NumPeriods // Stop drawing; report what we have.
			continue
		default:
		}

		p, ok := drawPeriod(rng, ts, cfg, startRangeDays)
		if !ok {
			// One retry per draw, then the draw is abandoned without
			// aborting the whole test.
			p, ok = drawPeriod(rng, ts, cfg, startRangeDays)
		}
		if !ok {
			discarded++
			collector.WithLabelValues("discarded").Inc()
			continue
		}
		collector.WithLabelValues("valid").Inc()
		periods = append(periods, p)
	}

	summary := Summary{
		RunID:            uuid.NewString(),
		RequestedPeriods: cfg.NumPeriods,
		ValidPeriods:     len(periods),
		DiscardedPeriods: discarded,
		Metrics:          make(map[string]MetricStats),
		FullMetrics:      full,
	}
	summary.scoreMetrics(periods, full)
	return summary, periods, nil
}

// drawPeriod samples one window and computes its metrics. ok is false when
// the window holds too few rows to support a meaningful record.
func drawPeriod(rng *rand.Rand, ts series.TradeSeries, cfg Config, startRangeDays int) (Period, bool) {
	offset := rng.Intn(startRangeDays + 1)
	winStart := ts.Start().AddDate(0, 0, offset)
	winEnd := winStart.AddDate(0, 0, cfg.PeriodLengthDays)

	window := ts.Slice(winStart, winEnd)
	if window.Len() < cfg.MinTradingDays {
		return Period{}, false
	}
	rec, err := perf.Compute(window, cfg.Params)
	if err != nil {
		return Period{}, false
	}
	return Period{Start: winStart, End: winEnd, Metrics: rec}, true
}

// metricValue extracts one tracked metric from a record.
func metricValue(name string, rec perf.MetricsRecord) float64 {
	switch name {
	case MetricCAGR:
		return rec.CAGR
	case MetricSharpe:
		return rec.Sharpe
	case MetricMaxDrawdown:
		return rec.MaxDrawdownPct
	case MetricVolatility:
		return rec.AnnualVolatility
	case MetricWinRate:
		return rec.WinRate
	case MetricProfitFactor:
		return rec.ProfitFactor
	}
	return 0
}

// scoreMetrics fills the per-metric spread statistics and the aggregate
// robustness score. A metric whose full-dataset value is exactly zero is
// excluded from scoring; the fixed weights renormalize over the remainder
// so the aggregate stays on the 0-100 scale.
func (s *Summary) scoreMetrics(periods []Period, full perf.MetricsRecord) {
	names := []string{
		MetricCAGR, MetricSharpe, MetricMaxDrawdown,
		MetricVolatility, MetricWinRate, MetricProfitFactor,
	}

	var weighted, totalWeight float64
	for _, name := range names {
		ms := describe(name, periods, full)
		if ms.Scored {
			if w := scoreWeights[name]; w > 0 {
				weighted += w * ms.ComponentScore
				totalWeight += w
			}
		}
		s.Metrics[name] = ms
	}
	if totalWeight > 0 {
		s.RobustnessScore = weighted / totalWeight
	}
}

// describe computes spread statistics for one metric across the periods.
func describe(name string, periods []Period, full perf.MetricsRecord) MetricStats {
	ms := MetricStats{FullDatasetValue: metricValue(name, full)}
	if len(periods) == 0 {
		return ms
	}

	values := make([]float64, len(periods))
	for i, p := range periods {
		values[i] = metricValue(name, p.Metrics)
	}
	sort.Float64s(values)

	ms.Min = values[0]
	ms.Max = values[len(values)-1]
	ms.Mean = stat.Mean(values, nil)
	ms.Median = stat.Quantile(0.50, stat.Empirical, values, nil)
	ms.Q1 = stat.Quantile(0.25, stat.Empirical, values, nil)
	ms.Q3 = stat.Quantile(0.75, stat.Empirical, values, nil)
	if len(values) > 1 {
		ms.StdDev = stat.StdDev(values, nil)
	}

	if ms.FullDatasetValue != 0 {
		drift := math.Abs(ms.Mean-ms.FullDatasetValue) / math.Abs(ms.FullDatasetValue)
		ms.ComponentScore = math.Max(0, 100-100*drift)
		ms.Scored = true
	}
	return ms
}
