// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SimulationsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulation_jobs_started_total",
			Help: "Total number of simulation jobs accepted",
		},
	)

	SimulationsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulation_jobs_finished_total",
			Help: "Total number of simulation jobs reaching a terminal state",
		},
		[]string{"status"},
	)

	SimulationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simulation_job_duration_seconds",
			Help:    "Wall-clock duration of simulation jobs",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	SimulationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simulation_jobs_active",
			Help: "Number of simulation jobs currently pending or running",
		},
	)

	OracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_calls_total",
			Help: "Total number of prediction oracle calls by outcome",
		},
		[]string{"outcome"},
	)

	OracleCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "oracle_call_duration_seconds",
			Help: "Duration of individual prediction oracle calls",
		},
	)
)
