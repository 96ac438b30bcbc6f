// Package metrics exposes Prometheus metrics for the challenge data pipeline.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pondermatic/strategy11-challenge/src/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the pipeline metrics and the registry they are exposed from.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	upstreamRequests *prometheus.CounterVec
	upstreamDuration prometheus.Histogram
	rejected         *prometheus.CounterVec
	cacheClears      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

// NewManager creates a metrics manager with its own registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "psc",
		subsystem:        "challenge",
		histogramBuckets: prometheus.DefBuckets,
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Requests for challenge data served from the cache",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Requests for challenge data that found no cached copy",
	})

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_requests_total",
		Help:      "Outcomes of calls to the challenge API at the transport level",
	}, []string{"result"})

	m.rejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "responses_rejected_total",
		Help:      "Challenge API responses discarded after a successful call",
	}, []string{"reason"})

	m.upstreamDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of calls to the challenge API",
		Buckets:   m.histogramBuckets,
	})

	m.cacheClears = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_clears_total",
		Help:      "Attempts to clear the cached challenge data",
	}, []string{"result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"route", "status"})
}

// Subscribe records pipeline events dispatched through events.
func (m *Manager) Subscribe(events *service.Dispatcher) {
	events.On(service.EventCacheHit, func(context.Context, service.Event, service.EventPayload) {
		m.cacheHits.Inc()
	})
	events.On(service.EventCacheMiss, func(context.Context, service.Event, service.EventPayload) {
		m.cacheMisses.Inc()
	})
	events.On(service.EventUpstreamRequest, func(_ context.Context, _ service.Event, p service.EventPayload) {
		m.upstreamRequests.WithLabelValues("success").Inc()
		m.upstreamDuration.Observe(p.Duration.Seconds())
	})
	events.On(service.EventUpstreamFailed, func(_ context.Context, _ service.Event, p service.EventPayload) {
		m.upstreamRequests.WithLabelValues("transport_error").Inc()
		m.upstreamDuration.Observe(p.Duration.Seconds())
	})
	events.On(service.EventDecodeFailed, func(context.Context, service.Event, service.EventPayload) {
		m.rejected.WithLabelValues("decode_error").Inc()
	})
	events.On(service.EventValidationFailed, func(context.Context, service.Event, service.EventPayload) {
		m.rejected.WithLabelValues("schema_error").Inc()
	})
	events.On(service.EventCacheCleared, func(context.Context, service.Event, service.EventPayload) {
		m.cacheClears.WithLabelValues("cleared").Inc()
	})
	events.On(service.EventCacheClearDenied, func(context.Context, service.Event, service.EventPayload) {
		m.cacheClears.WithLabelValues("denied").Inc()
	})
}

// GinMiddleware counts requests by matched route and response status.
func (m *Manager) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}
