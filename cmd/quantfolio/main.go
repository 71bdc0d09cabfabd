package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quantfolio/quantfolio/internal/config"
)

const (
	appName = "quantfolio"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Portfolio analytics and allocation optimization over daily P/L series",
		Version: version,
		Long: `quantfolio computes risk/return metrics over daily trade P/L series,
blends strategies under positive exposure multipliers, forecasts equity
paths via bootstrap simulation, searches for optimal allocation weights,
and tests metric stability across randomly sampled sub-periods.

Input files are normalized CSV: one "date,pnl" row per trading day.`,
	}

	rootCmd.PersistentFlags().String("config", "", "YAML config file with analysis defaults")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(newMetricsCmd())
	rootCmd.AddCommand(newBlendCmd())
	rootCmd.AddCommand(newForecastCmd())
	rootCmd.AddCommand(newOptimizeCmd())
	rootCmd.AddCommand(newRobustnessCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// loadConfig resolves the session config from the --config flag, falling
// back to built-in defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	applyLogLevel(cmd)
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(path)
}

func applyLogLevel(cmd *cobra.Command) {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// writeJSON prints a result document to stdout for downstream consumers.
func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
