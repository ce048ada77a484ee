// Package observability defines the Prometheus metrics exported on /metrics.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// AggregationsTotal counts aggregation runs by kind (timeline, bubble,
	// summary, daily, orders) and status (computed, cached).
	AggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesdash_aggregations_total",
			Help: "Total number of aggregation requests",
		},
		[]string{"kind", "status"},
	)

	// AggregationDuration measures how long computing an aggregation takes
	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salesdash_aggregation_duration_seconds",
			Help:    "Aggregation compute duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"kind"},
	)

	// DatasetRows tracks the number of records currently loaded
	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "salesdash_dataset_rows",
			Help: "Number of order line items in the loaded dataset",
		},
	)

	// DatasetVersion tracks the dataset version, bumped on every change
	DatasetVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "salesdash_dataset_version",
			Help: "Monotonic version of the loaded dataset",
		},
	)

	// OrdersTotal counts add-order attempts by result (added, duplicate, invalid)
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesdash_orders_total",
			Help: "Total add-order attempts",
		},
		[]string{"result"},
	)

	// ReloadsTotal counts dataset reloads by trigger and status
	ReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesdash_reloads_total",
			Help: "Total dataset reloads",
		},
		[]string{"trigger", "status"}, // status: success, failed
	)

	// CacheRequests counts cache lookups by result (hit, miss)
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesdash_cache_requests_total",
			Help: "Aggregation cache lookups",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal counts served requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesdash_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"method", "route", "code"},
	)

	// HTTPRequestDuration measures request latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salesdash_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salesdash_http_rate_limited_total",
			Help: "Requests rejected with 429",
		},
	)

	// SuspiciousRequestsTotal counts requests flagged by the detector
	SuspiciousRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salesdash_http_suspicious_requests_total",
			Help: "Requests matching known attack patterns",
		},
	)

	// MessagesTotal counts AMQP messages by direction (published, consumed)
	// and status (success, failed)
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesdash_amqp_messages_total",
			Help: "Total AMQP reload messages",
		},
		[]string{"direction", "status"},
	)

	// CircuitBreakerState is 0 closed, 1 open, 2 half-open
	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "salesdash_amqp_circuit_breaker_state",
			Help: "AMQP circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
	)
)

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAggregation records one computed aggregation of the given kind.
func ObserveAggregation(kind string, start time.Time) {
	AggregationsTotal.WithLabelValues(kind, "computed").Inc()
	AggregationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// StatusLabel maps an error to the success/failed label used by counters.
func StatusLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
