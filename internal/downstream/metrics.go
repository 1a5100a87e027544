package downstream

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// callsTotal counts downstream calls by operation and status code
	// ("error" when no response was received).
	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downstream_requests_total",
			Help: "Total number of requests sent to the downstream employee service.",
		},
		[]string{"operation", "code"},
	)

	// callLatency records round-trip time in seconds by operation.
	callLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "downstream_request_duration_seconds",
			Help:    "Duration of downstream employee service requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(callsTotal, callLatency)
}

func observe(op, code string, d time.Duration) {
	callsTotal.WithLabelValues(op, code).Inc()
	callLatency.WithLabelValues(op).Observe(d.Seconds())
}

func statusLabel(status int) string { return strconv.Itoa(status) }
