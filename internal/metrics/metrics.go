// Package metrics holds the Prometheus instrumentation of the reconciler,
// the queue consumer and the HTTP surface.  Everything registers with the
// default registry and is served on GET /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reconciliation Metrics
	ItemsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_items_total",
			Help: "Items handled by the reconciliation pipeline",
		},
		[]string{"kind", "outcome"}, // outcome: ok, malformed, conflict, unavailable, error
	)

	ReconcileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reconciler_item_duration_seconds",
			Help:    "Time spent reconciling one item, storage transaction included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	CinemaMerges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_cinema_merges_total",
			Help: "Cinema merge strategies applied",
		},
		[]string{"strategy"},
	)

	ShowingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciler_showings_created_total",
			Help: "Showings inserted for a new business key",
		},
	)

	ShowingsRefreshed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciler_showings_refreshed_total",
			Help: "Canonical showings whose descriptive fields were refreshed by a booking",
		},
	)

	ScreensUnresolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_screens_unresolved_total",
			Help: "Screen seat lookups that could not be narrowed to one screen",
		},
		[]string{"reason"}, // no_cinema, ambiguous, empty
	)

	// Queue Metrics
	QueueDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_deliveries_total",
			Help: "Queue deliveries by acknowledgement result",
		},
		[]string{"result"}, // ack, requeue, reject
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_hits_total",
			Help: "Responses served from the Redis cache",
		},
		[]string{"route"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_misses_total",
			Help: "Responses computed because the Redis cache had no entry",
		},
		[]string{"route"},
	)
)

// RecordItem records the outcome and duration of one reconciled item.
func RecordItem(kind, outcome string, duration time.Duration) {
	ItemsProcessed.WithLabelValues(kind, outcome).Inc()
	ReconcileDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
