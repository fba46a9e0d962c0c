// Package metrics holds the Prometheus instrumentation for inference runs,
// predictor calls and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts inference runs by outcome: success, failure, superseded, unresolved
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinelmap_runs_total",
			Help: "Total number of inference runs by outcome",
		},
		[]string{"outcome"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentinelmap_run_duration_seconds",
			Help:    "Duration of complete inference runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	TilePredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinelmap_tile_prediction_duration_seconds",
			Help:    "Duration of a single tile prediction call in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	DetectionsLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentinelmap_detections_last_run",
			Help: "Number of detections in the most recent successful run",
		},
	)

	// PredictorBreakerState is 0 closed, 1 half-open, 2 open
	PredictorBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinelmap_predictor_breaker_state",
			Help: "Circuit breaker state of the remote predictor (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	RunEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinelmap_run_events_total",
			Help: "Run events handed to the publisher by result",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinelmap_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
)
