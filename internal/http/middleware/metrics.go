// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the gateway's Prometheus collectors. Every series is keyed
// by the matched route template, never the raw URL; requests that matched no
// route share the label "unmatched".
//
// Besides request totals and latency, two counters separate the gateway's
// own failures from downstream answers passed through:
//
//	gateway_errors_total{route,code}             envelope written by the gateway
//	gateway_relayed_responses_total{route,status} downstream non-2xx relayed as is
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const unmatchedRoute = "unmatched"

type httpMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge
	size     *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	relayed  *prometheus.CounterVec
}

func newHTTPMetrics() *httpMetrics {
	return &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "Time to answer a request, downstream call included.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_http_requests_inflight",
			Help: "Requests currently being served.",
		}),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_http_response_size_bytes",
			Help:    "Response body size in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8), // 256B..4MiB
		}, []string{"route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_errors_total",
			Help: "Error envelopes written by the gateway, by route and code.",
		}, []string{"route", "code"}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_relayed_responses_total",
			Help: "Downstream error answers relayed unchanged, by route and status.",
		}, []string{"route", "status"}),
	}
}

func (m *httpMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.latency, m.inflight, m.size, m.errors, m.relayed}
}

func (m *httpMetrics) observe(c *gin.Context, start time.Time) {
	route := c.FullPath()
	if route == "" {
		route = unmatchedRoute
	}
	method := c.Request.Method

	m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
	m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	if n := c.Writer.Size(); n >= 0 {
		m.size.WithLabelValues(route).Observe(float64(n))
	}
	if code := errorCodeFrom(c); code != "" {
		m.errors.WithLabelValues(route, code).Inc()
	}
	if s, ok := relayedStatusFrom(c); ok {
		m.relayed.WithLabelValues(route, strconv.Itoa(s)).Inc()
	}
}

var gatewayMetrics = newHTTPMetrics()

func init() {
	prometheus.MustRegister(gatewayMetrics.collectors()...)
}

// Metrics records the gateway collectors for every request. Mount
// promhttp.Handler() to expose them.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		gatewayMetrics.inflight.Inc()
		defer gatewayMetrics.inflight.Dec()

		c.Next()

		gatewayMetrics.observe(c, start)
	}
}
