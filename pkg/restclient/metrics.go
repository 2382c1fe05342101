package restclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the service client. Attempt-level counters
// expose the retry behavior; call-level metrics cover the logical operation.
//
//nolint:gochecknoglobals // Prometheus collectors are package-level by convention
var (
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restclient_attempts_total",
			Help: "Total HTTP attempts by endpoint host and classification",
		},
		[]string{"endpoint", "result"},
	)
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restclient_calls_total",
			Help: "Total logical service calls by endpoint host and status",
		},
		[]string{"endpoint", "status"},
	)
	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restclient_call_duration_seconds",
			Help:    "Duration of logical service calls including retries and backoff",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

func observeAttempt(endpoint string, kind FailureKind) {
	result := "success"
	if kind != FailureNone {
		result = kind.String()
	}
	attemptsTotal.WithLabelValues(endpoint, result).Inc()
}

func observeCall(endpoint string, ok bool, duration time.Duration) {
	status := "success"
	if !ok {
		status = "error"
	}
	callsTotal.WithLabelValues(endpoint, status).Inc()
	callDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
