package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RateLimitChecks counts rate limit checks by type and result.
	RateLimitChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_ratelimit_checks_total",
			Help: "Total number of rate limit checks",
		},
		[]string{"limit_type", "allowed"},
	)

	// RateLimitBlocks counts rejected requests by limit type.
	RateLimitBlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_ratelimit_blocks_total",
			Help: "Total number of rate limit blocks",
		},
		[]string{"limit_type"},
	)
)

// registerRateLimitMetrics registers all rate limiting metrics.
func registerRateLimitMetrics() error {
	return register(
		RateLimitChecks,
		RateLimitBlocks,
	)
}

// RecordRateLimit records one rate limit decision.
func RecordRateLimit(limitType string, allowed bool) {
	if allowed {
		RateLimitChecks.WithLabelValues(limitType, "true").Inc()
		return
	}
	RateLimitChecks.WithLabelValues(limitType, "false").Inc()
	RateLimitBlocks.WithLabelValues(limitType).Inc()
}
