package missionsim

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missionsim_runs_total",
			Help: "Total number of simulation runs, by outcome.",
		},
		[]string{"outcome"},
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "missionsim_run_duration_seconds",
			Help:    "Wall clock duration of a simulation run in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	depletedStepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "missionsim_depleted_steps_total",
			Help: "Total number of steps during which the battery could not power the loads.",
		},
	)
)

func init() {
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(runDurationSeconds)
	prometheus.MustRegister(depletedStepsTotal)
}

// Run outcomes.
const (
	outcomeOK       = "ok"
	outcomeUnstable = "unstable"
	outcomeAborted  = "aborted"
	outcomeInvalid  = "invalid"
)

// WriteMetrics writes the metrics in the Prometheus text format to the provided path, e.g. for the node exporter
// textfile collector.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
