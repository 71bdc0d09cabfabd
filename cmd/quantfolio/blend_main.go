package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfolio/quantfolio/internal/blend"
	"github.com/quantfolio/quantfolio/internal/perf"
	"github.com/quantfolio/quantfolio/internal/series"
)

func newBlendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blend <a.csv> <b.csv> [more.csv...]",
		Short: "Blend series under exposure multipliers and compute metrics",
		Long: `Outer-joins the series by date, sums weight-scaled P/L per date, and
computes metrics for the blended result. Weights are positive multipliers
(1.0 = full exposure), not normalized fractions.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runBlend,
	}

	cmd.Flags().String("weights", "", "Comma-separated multipliers, one per series (default: all 1.0)")
	cmd.Flags().Float64("capital", 0, "Starting capital (overrides config)")
	cmd.Flags().String("equity-out", "", "Write the blended equity curve to this CSV")
	return cmd
}

func runBlend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	params := paramsFromFlags(cmd, cfg.Params)

	list, err := loadAll(args)
	if err != nil {
		return err
	}

	weights := make([]float64, len(list))
	for i := range weights {
		weights[i] = 1.0
	}
	if spec, _ := cmd.Flags().GetString("weights"); spec != "" {
		if weights, err = parseWeights(spec); err != nil {
			return err
		}
	}

	blended, err := blend.Blend(list, weights)
	if err != nil {
		return err
	}
	rec, err := perf.Compute(blended, params)
	if err != nil {
		return err
	}
	log.Info().Str("blend", blended.Name).Int("rows", blended.Len()).Msg("blend computed")

	if path, _ := cmd.Flags().GetString("equity-out"); path != "" {
		if err := writeEquityCSV(path, series.BuildCurve(blended, params.StartingCapital)); err != nil {
			return err
		}
	}

	return writeJSON(struct {
		Name    string             `json:"name"`
		Weights []float64          `json:"weights"`
		Metrics perf.MetricsRecord `json:"metrics"`
	}{blended.Name, weights, rec})
}
