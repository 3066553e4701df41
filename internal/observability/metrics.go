package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestLatency records posts API call latency by operation and outcome.
	APIRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newsletter_api_request_latency_seconds",
		Help:    "Posts API call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	// ViewOutcomes counts how view loads settled. Detail loads answered with a
	// 404 are also counted as not_found, on top of their error outcome.
	ViewOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_view_outcomes_total",
		Help: "Total number of settled or discarded view loads",
	}, []string{"view", "outcome"})

	// SyntheticIDs counts posts that were listed without a server id.
	SyntheticIDs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsletter_synthetic_ids_total",
		Help: "Total number of listed posts given a positional id",
	})

	// RateLimitRejections counts requests rejected by the rate limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_rate_limit_rejections_total",
		Help: "Total number of rate-limited requests by resource",
	}, []string{"resource"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records development API query latency by operation.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newsletter_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// ObserveAPICall records the latency of one API call.
func ObserveAPICall(operation string, err error, start time.Time) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	APIRequestLatency.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
