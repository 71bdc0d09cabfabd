// Package telemetry holds the Prometheus instrumentation for the analytics
// engine. The core stays side-effect free apart from these counters; exposing
// the registry over HTTP is the embedding caller's job.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all Prometheus metrics for the analytics engine.
type Registry struct {
	// Durations of the long-running entry points
	OptimizeDuration   *prometheus.HistogramVec
	SimulateDuration   prometheus.Histogram
	RobustnessDuration prometheus.Histogram

	// Work counters
	ObjectiveEvaluations *prometheus.CounterVec
	SimulatedPaths       prometheus.Counter
	RobustnessWindows    *prometheus.CounterVec
}

// NewRegistry creates a metrics registry with all engine metrics.
func NewRegistry() *Registry {
	return &Registry{
		OptimizeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantfolio_optimize_duration_seconds",
				Help:    "Duration of optimization runs by algorithm",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"algorithm", "objective"},
		),

		SimulateDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quantfolio_simulate_duration_seconds",
				Help:    "Duration of Monte Carlo forecast runs",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
		),

		RobustnessDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quantfolio_robustness_duration_seconds",
				Help:    "Duration of robustness test runs",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
		),

		ObjectiveEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantfolio_objective_evaluations_total",
				Help: "Total objective function evaluations by objective",
			},
			[]string{"objective"},
		),

		SimulatedPaths: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quantfolio_simulated_paths_total",
				Help: "Total Monte Carlo paths generated",
			},
		),

		RobustnessWindows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantfolio_robustness_windows_total",
				Help: "Total robustness windows by outcome (valid, discarded)",
			},
			[]string{"outcome"},
		),
	}
}

// Register registers all metrics with the given Prometheus registerer.
func (r *Registry) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.OptimizeDuration,
		r.SimulateDuration,
		r.RobustnessDuration,
		r.ObjectiveEvaluations,
		r.SimulatedPaths,
		r.RobustnessWindows,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry, registering it with the
// default Prometheus registerer on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		// AlreadyRegisteredError cannot occur on first use of the
		// package-private instance, so registration errors are fatal
		// programming errors.
		if err := defaultRegistry.Register(prometheus.DefaultRegisterer); err != nil {
			panic(err)
		}
	})
	return defaultRegistry
}
