package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openim_client_requests_total",
			Help: "Calls made to the remote service, by path and outcome.",
		},
		[]string{"path", "outcome"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openim_client_request_duration_seconds",
			Help:    "Latency of calls to the remote service.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	TokenCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openim_client_token_cache_total",
			Help: "Token cache lookups, by token kind and result (hit, miss).",
		},
		[]string{"kind", "result"},
	)

	TokenBootstrapTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openim_client_token_bootstrap_total",
			Help: "Token acquisition round trips, by token kind and result.",
		},
		[]string{"kind", "result"},
	)

	TokenBootstrapShared = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openim_client_token_bootstrap_shared_total",
			Help: "Callers that joined an acquisition already in flight for the same key.",
		},
		[]string{"kind"},
	)
)

// ObserveRequest records one dispatcher call.
func ObserveRequest(path, outcome string, seconds float64) {
	RequestsTotal.WithLabelValues(path, outcome).Inc()
	RequestDuration.WithLabelValues(path).Observe(seconds)
}

// IncrementTokenCache records a token cache lookup.
func IncrementTokenCache(kind, result string) {
	TokenCacheTotal.WithLabelValues(kind, result).Inc()
}

// IncrementTokenBootstrap records a token acquisition attempt.
func IncrementTokenBootstrap(kind, result string) {
	TokenBootstrapTotal.WithLabelValues(kind, result).Inc()
}

// IncrementTokenBootstrapShared records a caller that reused an in-flight acquisition.
func IncrementTokenBootstrapShared(kind string) {
	TokenBootstrapShared.WithLabelValues(kind).Inc()
}
