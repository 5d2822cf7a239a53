package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ff_editions"

var (
	// Reservations counts reservation requests by outcome
	// (reserved, sold_out, insufficient_funds, not_started, ended, rate_limited, error)
	Reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "reservations_total",
			Help:      "Total number of edition reservation requests by outcome",
		},
		[]string{"outcome"},
	)

	// Collections counts collect requests by outcome
	Collections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "requests_total",
			Help:      "Total number of collect requests by outcome",
		},
		[]string{"outcome"},
	)

	// RateLimitRejections counts rejected acquisition attempts by reason
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "rejections_total",
			Help:      "Total number of acquisition attempts rejected by the rate limiter",
		},
		[]string{"reason"},
	)

	// Fulfillments counts fulfillment attempts by outcome
	// (confirmed, master_created, deferred, retry, blocked, error)
	Fulfillments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fulfillment",
			Name:      "attempts_total",
			Help:      "Total number of fulfillment attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ReconcilerTransitions counts status transitions applied by the reconciler
	ReconcilerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "transitions_total",
			Help:      "Total number of status transitions applied by the reconciler",
		},
		[]string{"record", "to"},
	)

	// StaleRecoveries counts records recovered after exceeding the staleness threshold
	StaleRecoveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "stale_recoveries_total",
			Help:      "Total number of stale reserved, minting and pending records recovered",
		},
		[]string{"record", "from"},
	)

	// Webhooks counts inbound transaction webhooks by result (processed, duplicate, unmatched)
	Webhooks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "received_total",
			Help:      "Total number of inbound transaction webhooks by result",
		},
		[]string{"result"},
	)

	// Notifications counts notifications by result (sent, recorded, duplicate, failed)
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "dispatched_total",
			Help:      "Total number of notifications by dispatch result",
		},
		[]string{"kind", "result"},
	)

	// SweepDuration observes how long one reconciliation sweep takes
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of reconciliation sweeps in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	// HTTPRequests counts API requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes API request latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
		},
		[]string{"method", "path"},
	)
)

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
