package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boulderbot",
			Name:      "backend_requests_total",
			Help:      "Backend HTTP requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "boulderbot",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend HTTP request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	healthChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boulderbot",
			Name:      "health_requests_total",
			Help:      "Health endpoint requests by path.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(backendRequests, backendDuration, healthChecks)
	})
}

// ObserveBackend records one backend call. status 0 means a transport error.
func ObserveBackend(endpoint string, status int, took time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	backendRequests.WithLabelValues(endpoint, label).Inc()
	backendDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

// IncHTTP increments the counter for a health endpoint label.
func IncHTTP(endpoint string) {
	healthChecks.WithLabelValues(endpoint).Inc()
}
