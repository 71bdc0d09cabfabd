package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfolio/quantfolio/internal/blend"
	"github.com/quantfolio/quantfolio/internal/robust"
)

func newRobustnessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "robustness <series.csv> [more.csv...]",
		Short: "Test metric stability across randomly sampled sub-periods",
		Long: `Draws random windows from the series history, recomputes metrics per
window, and scores how closely the window means track the full-history
values. With multiple input files the series are blended at the given
weights first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRobustness,
	}

	cmd.Flags().Int("periods", 0, "Number of windows to draw (overrides config)")
	cmd.Flags().Int("period-days", 0, "Calendar length of each window (overrides config)")
	cmd.Flags().String("weights", "", "Blend multipliers when multiple series are given")
	cmd.Flags().Float64("capital", 0, "Starting capital (overrides config)")
	cmd.Flags().Int64("seed", 0, "Random seed (0 = stochastic)")
	cmd.Flags().Bool("with-periods", false, "Include per-window metrics in the output")
	return cmd
}

func runRobustness(cmd *cobra.Command, args []string) error {
	sessionCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := sessionCfg.Robustness

	if v, _ := cmd.Flags().GetInt("periods"); v > 0 {
		cfg.NumPeriods = v
	}
	if v, _ := cmd.Flags().GetInt("period-days"); v > 0 {
		cfg.PeriodLengthDays = v
	}
	if v, _ := cmd.Flags().GetFloat64("capital"); v > 0 {
		cfg.Params.StartingCapital = v
	}
	if v, _ := cmd.Flags().GetInt64("seed"); v != 0 {
		cfg.Seed = v
	}

	list, err := loadAll(args)
	if err != nil {
		return err
	}

	target := list[0]
	if len(list) > 1 {
		weights := make([]float64, len(list))
		for i := range weights {
			weights[i] = 1.0
		}
		if spec, _ := cmd.Flags().GetString("weights"); spec != "" {
			if weights, err = parseWeights(spec); err != nil {
				return err
			}
		}
		if target, err = blend.Blend(list, weights); err != nil {
			return err
		}
	}

	summary, periods, err := robust.Test(cmd.Context(), target, cfg)
	if err != nil {
		return err
	}
	log.Info().
		Str("run_id", summary.RunID).
		Int("valid_periods", summary.ValidPeriods).
		Int("discarded_periods", summary.DiscardedPeriods).
		Float64("score", summary.RobustnessScore).
		Msg("robustness test complete")

	out := struct {
		Summary robust.Summary  `json:"summary"`
		Periods []robust.Period `json:"periods,omitempty"`
	}{Summary: summary}
	if with, _ := cmd.Flags().GetBool("with-periods"); with {
		out.Periods = periods
	}
	return writeJSON(out)
}
