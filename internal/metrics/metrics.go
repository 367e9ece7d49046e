// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Prediction metrics
	PredictionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foresight_prediction_runs_total",
			Help: "Total number of prediction runs",
		},
		[]string{"status"}, // status: ok/insufficient_data/error
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foresight_predictions_total",
			Help: "Total number of predictions emitted",
		},
		[]string{"horizon", "source"},
	)

	PredictionRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foresight_prediction_run_duration_seconds",
			Help:    "Prediction run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
	)

	PersistenceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foresight_persistence_failures_total",
			Help: "Best-effort writes that failed and were skipped",
		},
		[]string{"entity"}, // prediction/relationship/execution
	)

	// Advisory oracle metrics
	AdvisoryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foresight_advisory_requests_total",
			Help: "Total number of advisory oracle requests",
		},
		[]string{"provider", "status"},
	)

	// Prevention metrics
	PreventionActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foresight_prevention_actions_total",
			Help: "Total number of executed prevention actions",
		},
		[]string{"type", "status"},
	)

	// Validation metrics
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foresight_validations_total",
			Help: "Total number of validated predictions",
		},
		[]string{"outcome", "correct"},
	)

	ValidationAccuracy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foresight_validation_accuracy",
			Help: "Accuracy of the most recent validation run",
		},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foresight_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)
)
