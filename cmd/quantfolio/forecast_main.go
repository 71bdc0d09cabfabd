package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfolio/quantfolio/internal/montecarlo"
)

func newForecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast <series.csv>",
		Short: "Bootstrap Monte Carlo forecast of future equity paths",
		Long: `Simulates future equity paths by resampling historical daily P/L with
replacement and reports the 5th/50th/95th percentile path across all
simulations.`,
		Args: cobra.ExactArgs(1),
		RunE: runForecast,
	}

	cmd.Flags().Int("sims", 0, "Number of simulated paths (overrides config)")
	cmd.Flags().Int("horizon", 0, "Forecast horizon in trading days (overrides config)")
	cmd.Flags().Float64("capital", 0, "Starting capital behind the history")
	cmd.Flags().Bool("from-scratch", false, "Anchor paths at starting capital instead of final equity")
	cmd.Flags().Int64("seed", 0, "Random seed (0 = stochastic)")
	cmd.Flags().Int("workers", 0, "Parallel path generators")
	cmd.Flags().Duration("timeout", 0, "Wall-clock budget; partial results are kept")
	return cmd
}

func runForecast(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	mc := cfg.MonteCarlo

	if v, _ := cmd.Flags().GetInt("sims"); v > 0 {
		mc.NumSimulations = v
	}
	if v, _ := cmd.Flags().GetInt("horizon"); v > 0 {
		mc.HorizonDays = v
	}
	if v, _ := cmd.Flags().GetFloat64("capital"); v > 0 {
		mc.StartingCapital = v
	}
	if v, _ := cmd.Flags().GetBool("from-scratch"); v {
		mc.FromScratch = true
	}
	if v, _ := cmd.Flags().GetInt64("seed"); v != 0 {
		mc.Seed = v
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		mc.Workers = v
	}

	ts, err := loadSeries(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	forecast, err := montecarlo.Simulate(ctx, ts, mc)
	if err != nil {
		return err
	}
	log.Info().
		Str("run_id", forecast.RunID).
		Int("simulations", forecast.Simulations).
		Dur("elapsed", time.Since(start)).
		Msg("forecast complete")

	return writeJSON(forecast)
}
