// Package monitoring exposes the service's Prometheus metrics.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Predictions counts scored records by returned label.
	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termdeposit_predictions_total",
			Help: "Scored client records by predicted label",
		},
		[]string{"label"},
	)

	// PredictionErrors counts records the model failed to score.
	PredictionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "termdeposit_prediction_errors_total",
			Help: "Client records the model failed to score",
		},
	)

	// PredictionCacheHits counts predictions served from the result cache.
	PredictionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "termdeposit_prediction_cache_hits_total",
			Help: "Predictions answered from the result cache",
		},
	)

	PredictionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "termdeposit_prediction_duration_seconds",
			Help:    "Time spent scoring one client record",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		},
	)

	// ModelInfo is set to 1 for the loaded model type.
	ModelInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "termdeposit_model_info",
			Help: "Loaded model artifact",
		},
		[]string{"model_type"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termdeposit_http_requests_total",
			Help: "HTTP requests by method and status code",
		},
		[]string{"method", "code"},
	)
)
