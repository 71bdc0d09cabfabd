package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/quantfolio/quantfolio/internal/perf"
	"github.com/quantfolio/quantfolio/internal/series"
)

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics <series.csv> [more.csv...]",
		Short: "Compute risk/return metrics per series",
		Long:  "Computes CAGR, Sharpe, drawdown, win rate and related metrics for each normalized P/L series",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMetrics,
	}

	cmd.Flags().Float64("capital", 0, "Starting capital (overrides config)")
	cmd.Flags().Float64("rf-rate", -1, "Annual risk-free rate (overrides config)")
	cmd.Flags().Int("sma-window", 0, "Equity SMA window for the trading filter")
	cmd.Flags().Bool("trading-filter", false, "Gate daily P/L on equity vs its SMA")
	cmd.Flags().Bool("correlate", false, "Also print the pairwise P/L correlation matrix")
	cmd.Flags().String("equity-out", "", "Write the first series' equity curve to this CSV")
	return cmd
}

func runMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	params := paramsFromFlags(cmd, cfg.Params)

	list, err := loadAll(args)
	if err != nil {
		return err
	}

	out := struct {
		Records     map[string]perf.MetricsRecord `json:"records"`
		Correlation [][]float64                   `json:"correlation,omitempty"`
		Names       []string                      `json:"names"`
	}{Records: make(map[string]perf.MetricsRecord)}

	for _, ts := range list {
		rec, err := perf.Compute(ts, params)
		if err != nil {
			return fmt.Errorf("series %s: %w", ts.Name, err)
		}
		out.Records[ts.Name] = rec
		out.Names = append(out.Names, ts.Name)
		log.Debug().Str("series", ts.Name).Int("rows", ts.Len()).Msg("metrics computed")
	}

	if correlate, _ := cmd.Flags().GetBool("correlate"); correlate && len(list) > 1 {
		out.Correlation = symToRows(perf.CorrelationMatrix(list))
	}

	if path, _ := cmd.Flags().GetString("equity-out"); path != "" {
		curve := series.BuildCurve(list[0], params.StartingCapital)
		if err := writeEquityCSV(path, curve); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("equity curve written")
	}

	return writeJSON(out)
}

// paramsFromFlags layers command-line overrides onto the session params.
func paramsFromFlags(cmd *cobra.Command, params perf.Params) perf.Params {
	if capital, _ := cmd.Flags().GetFloat64("capital"); capital > 0 {
		params.StartingCapital = capital
	}
	if rf, _ := cmd.Flags().GetFloat64("rf-rate"); rf >= 0 {
		params.RiskFreeRate = rf
		params.DailyRiskFreeRate = rf / float64(params.TradingDaysPerYear)
	}
	if window, _ := cmd.Flags().GetInt("sma-window"); window > 0 {
		params.SMAWindow = window
	}
	if filter, _ := cmd.Flags().GetBool("trading-filter"); filter {
		params.UseTradingFilter = true
	}
	return params
}

// symToRows flattens a symmetric matrix for JSON output.
func symToRows(m *mat.SymDense) [][]float64 {
	n := m.SymmetricDim()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}
