package robust

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantfolio/internal/perf"
	"github.com/quantfolio/quantfolio/internal/series"
)

func day(n int) time.Time {
	return time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// daily builds n consecutive days cycling through the pattern.
func daily(name string, n int, pattern ...float64) series.TradeSeries {
	ts := series.TradeSeries{Name: name}
	for i := 0; i < n; i++ {
		ts.Points = append(ts.Points, series.Point{Date: day(i), PnL: pattern[i%len(pattern)]})
	}
	return ts
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 99
	cfg.Params = perf.DefaultParams()
	return cfg
}

func TestTestRejectsShortHistory(t *testing.T) {
	// 253 rows span exactly 252 calendar days: no valid start range.
	ts := daily("short", 253, 100, -50)
	cfg := testConfig()
	cfg.PeriodLengthDays = 252

	_, _, err := Test(context.Background(), ts, cfg)
	require.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestTestSamplesRequestedPeriods(t *testing.T) {
	ts := daily("long", 900, 100, -50, 75, -25)
	cfg := testConfig()

	summary, periods, err := Test(context.Background(), ts, cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.NumPeriods, summary.RequestedPeriods)
	assert.Equal(t, len(periods), summary.ValidPeriods)
	assert.Equal(t, cfg.NumPeriods, summary.ValidPeriods+summary.DiscardedPeriods)

	for _, p := range periods {
		assert.False(t, p.Start.Before(ts.Start()), "window starts inside the dataset")
		assert.False(t, p.End.After(ts.End().AddDate(0, 0, 1)), "window ends inside the dataset")
		assert.GreaterOrEqual(t, p.Metrics.TotalRows, cfg.MinTradingDays)
	}
}

func TestTestScoresStableStrategyHighly(t *testing.T) {
	// A perfectly periodic strategy looks the same in every window, so the
	// window means sit on top of the full-history values.
	ts := daily("steady", 1200, 100, -50)
	cfg := testConfig()
	cfg.NumPeriods = 20

	summary, _, err := Test(context.Background(), ts, cfg)
	require.NoError(t, err)

	assert.Greater(t, summary.RobustnessScore, 50.0)
	assert.LessOrEqual(t, summary.RobustnessScore, 100.0)

	winRate := summary.Metrics[MetricWinRate]
	require.True(t, winRate.Scored)
	assert.InDelta(t, 0.5, winRate.FullDatasetValue, 1e-9)
	assert.InDelta(t, 0.5, winRate.Mean, 0.01)
	assert.Greater(t, winRate.ComponentScore, 95.0)
}

func TestTestStatisticsOrdering(t *testing.T) {
	ts := daily("s", 900, 150, -75, 50, -25, 200)
	cfg := testConfig()
	cfg.NumPeriods = 15

	summary, _, err := Test(context.Background(), ts, cfg)
	require.NoError(t, err)

	for name, ms := range summary.Metrics {
		assert.LessOrEqual(t, ms.Min, ms.Q1, "%s: min <= q1", name)
		assert.LessOrEqual(t, ms.Q1, ms.Median, "%s: q1 <= median", name)
		assert.LessOrEqual(t, ms.Median, ms.Q3, "%s: median <= q3", name)
		assert.LessOrEqual(t, ms.Q3, ms.Max, "%s: q3 <= max", name)
		assert.GreaterOrEqual(t, ms.ComponentScore, 0.0, "%s: component score floor", name)
	}
}

func TestTestZeroValuedMetricExcludedFromScore(t *testing.T) {
	// Monotonic winners never draw down, so the drawdown metric's
	// full-history value is zero and must not be scored.
	ts := daily("up", 900, 100, 50)
	cfg := testConfig()

	summary, _, err := Test(context.Background(), ts, cfg)
	require.NoError(t, err)

	dd := summary.Metrics[MetricMaxDrawdown]
	assert.Zero(t, dd.FullDatasetValue)
	assert.False(t, dd.Scored)
	assert.Zero(t, dd.ComponentScore)

	// The remaining metrics still produce a usable aggregate.
	assert.Greater(t, summary.RobustnessScore, 0.0)
}

func TestTestDeterministicWithSeed(t *testing.T) {
	ts := daily("s", 900, 100, -50, 60)
	cfg := testConfig()

	first, p1, err := Test(context.Background(), ts, cfg)
	require.NoError(t, err)
	second, p2, err := Test(context.Background(), ts, cfg)
	require.NoError(t, err)

	require.Equal(t, len(p1), len(p2))
	for i := range p1 {
		assert.Equal(t, p1[i].Start, p2[i].Start)
	}
	assert.Equal(t, first.RobustnessScore, second.RobustnessScore)
}

func TestTestEmptySeries(t *testing.T) {
	_, _, err := Test(context.Background(), series.TradeSeries{Name: "empty"}, testConfig())
	require.ErrorIs(t, err, series.ErrInsufficientData)
}
