// Package metrics holds the prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakemate_ai_requests_total",
			Help: "Generative AI calls by operation and outcome (ok, fallback, error)",
		},
		[]string{"operation", "outcome"},
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sakemate_ai_request_duration_seconds",
			Help:    "Latency of generative AI calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"operation"},
	)

	StoreReadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakemate_store_read_failures_total",
			Help: "Reads that degraded to an empty result, by storage key",
		},
		[]string{"key"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakemate_http_requests_total",
			Help: "API requests by route pattern and status class",
		},
		[]string{"route", "status"},
	)
)

// Outcome labels for AIRequests.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)
