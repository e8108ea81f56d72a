// Package metrics holds the Prometheus metrics of the explorer.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Upstream metrics
	upstreamRequestsTotal *prometheus.CounterVec
	upstreamDuration      prometheus.Histogram
	upstreamRetriesTotal  prometheus.Counter

	// Cache metrics
	cacheLookupsTotal *prometheus.CounterVec

	// Session metrics
	activeSessions          prometheus.Gauge
	discardedResponsesTotal prometheus.Counter
	rateLimitHitsTotal      prometheus.Counter
}

// New creates and registers all metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "explorer_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "explorer_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),

		upstreamRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "explorer_upstream_requests_total",
				Help: "Upstream data source requests by result",
			},
			[]string{"kind", "result"},
		),
		upstreamDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "explorer_upstream_request_duration_seconds",
				Help:    "Upstream request latency in seconds, retries included",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		upstreamRetriesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "explorer_upstream_retries_total",
				Help: "Upstream request attempts that were retried",
			},
		),

		cacheLookupsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "explorer_cache_lookups_total",
				Help: "Response cache lookups by outcome (hit, stale, persisted, miss)",
			},
			[]string{"outcome"},
		),

		activeSessions: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "explorer_active_sessions",
				Help: "Current number of mounted page sessions",
			},
		),
		discardedResponsesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "explorer_discarded_responses_total",
				Help: "Responses discarded because a newer request superseded them",
			},
		),
		rateLimitHitsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "explorer_rate_limit_hits_total",
				Help: "Requests rejected by the inbound rate limiter",
			},
		),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Middleware returns a gin middleware that collects HTTP metrics
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler returns a gin handler that exposes the registry
func (m *Metrics) Handler() gin.HandlerFunc {
	if m == nil {
		return gin.WrapH(promhttp.Handler())
	}
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// RecordUpstream records one logical upstream fetch
func (m *Metrics) RecordUpstream(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.upstreamRequestsTotal.WithLabelValues(kind, result).Inc()
	m.upstreamDuration.Observe(duration.Seconds())
}

// RecordRetry records a retried upstream attempt
func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.upstreamRetriesTotal.Inc()
}

// RecordCacheLookup records a cache lookup outcome
func (m *Metrics) RecordCacheLookup(outcome string) {
	if m == nil {
		return
	}
	m.cacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordDiscard records a superseded response
func (m *Metrics) RecordDiscard() {
	if m == nil {
		return
	}
	m.discardedResponsesTotal.Inc()
}

// RecordRateLimitHit records a rejected inbound request
func (m *Metrics) RecordRateLimitHit() {
	if m == nil {
		return
	}
	m.rateLimitHitsTotal.Inc()
}

// SetActiveSessions updates the session gauge
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
