// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RateLimitRejections tracks requests rejected by the per-tier limiter.
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected because a tier rate ceiling was exceeded",
		},
		[]string{"class", "tier"},
	)

	// SearchRequests tracks server-side search volume.
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_search_requests_total",
			Help: "Server-side conversation searches",
		},
		[]string{"status"},
	)

	// CatalogSyncRuns tracks model catalog sync outcomes.
	CatalogSyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_catalog_sync_runs_total",
			Help: "Model catalog sync runs by outcome",
		},
		[]string{"status"},
	)

	// CatalogSyncDuration tracks how long catalog syncs take.
	CatalogSyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "model_catalog_sync_duration_seconds",
			Help:    "Model catalog sync duration",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)
