package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfolio/quantfolio/internal/tune"
)

func newOptimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize <a.csv> <b.csv> [more.csv...]",
		Short: "Search for allocation weights maximizing a risk-adjusted objective",
		Long: `Searches for the per-strategy exposure multipliers that maximize the
chosen objective over the blended series. Every candidate costs one full
blend-and-recompute pass. A run that exhausts its budget still returns the
best weights found, flagged as not converged.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runOptimize,
	}

	cmd.Flags().String("objective", "", "max_cagr|min_drawdown|max_sharpe|max_calmar|blended_return_drawdown")
	cmd.Flags().String("algorithm", "", "differential_evolution|slsqp|grid_search")
	cmd.Flags().Float64("min-weight", 0, "Lower bound per multiplier (overrides config)")
	cmd.Flags().Float64("max-weight", 0, "Upper bound per multiplier (overrides config)")
	cmd.Flags().Float64("capital", 0, "Starting capital (overrides config)")
	cmd.Flags().Int64("seed", 0, "Random seed for reproducible runs (0 = stochastic)")
	cmd.Flags().Int("max-iterations", 0, "Generation / iteration budget")
	cmd.Flags().Float64("grid-step", 0, "Lattice step for grid search")
	cmd.Flags().Duration("timeout", 0, "Wall-clock budget; best-so-far is returned")
	return cmd
}

func runOptimize(cmd *cobra.Command, args []string) error {
	sessionCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := sessionCfg.Optimizer

	if v, _ := cmd.Flags().GetString("objective"); v != "" {
		cfg.Objective = tune.Objective(v)
	}
	if v, _ := cmd.Flags().GetString("algorithm"); v != "" {
		cfg.Algorithm = tune.Algorithm(v)
	}
	if v, _ := cmd.Flags().GetFloat64("min-weight"); v > 0 {
		cfg.Bounds.Min = v
	}
	if v, _ := cmd.Flags().GetFloat64("max-weight"); v > 0 {
		cfg.Bounds.Max = v
	}
	if v, _ := cmd.Flags().GetFloat64("capital"); v > 0 {
		cfg.Params.StartingCapital = v
	}
	if v, _ := cmd.Flags().GetInt64("seed"); v != 0 {
		cfg.Seed = v
	}
	if v, _ := cmd.Flags().GetInt("max-iterations"); v > 0 {
		cfg.MaxIterations = v
	}
	if v, _ := cmd.Flags().GetFloat64("grid-step"); v > 0 {
		cfg.GridStep = v
	}

	list, err := loadAll(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := tune.Optimize(ctx, list, cfg)
	if err != nil {
		return err
	}

	event := log.Info()
	if !result.Converged {
		event = log.Warn()
	}
	event.
		Str("run_id", result.RunID).
		Str("algorithm", string(result.Algorithm)).
		Bool("converged", result.Converged).
		Int("evaluations", result.Evaluations).
		Floats64("weights", result.Weights).
		Msg("optimization complete")

	return writeJSON(result)
}
