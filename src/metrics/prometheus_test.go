package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pondermatic/strategy11-challenge/src/service"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Subscribe(t *testing.T) {
	m := NewManager()
	events := service.NewDispatcher()
	m.Subscribe(events)
	ctx := context.Background()

	events.Dispatch(ctx, service.EventCacheMiss, service.EventPayload{})
	events.Dispatch(ctx, service.EventUpstreamRequest, service.EventPayload{Duration: 150 * time.Millisecond})
	events.Dispatch(ctx, service.EventCacheHit, service.EventPayload{})
	events.Dispatch(ctx, service.EventCacheHit, service.EventPayload{})
	events.Dispatch(ctx, service.EventUpstreamFailed, service.EventPayload{Err: errors.New("refused")})
	events.Dispatch(ctx, service.EventValidationFailed, service.EventPayload{})
	events.Dispatch(ctx, service.EventCacheClearDenied, service.EventPayload{})

	assert.Equal(t, 2.0, promtest.ToFloat64(m.cacheHits))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.cacheMisses))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.upstreamRequests.WithLabelValues("success")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.upstreamRequests.WithLabelValues("transport_error")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.rejected.WithLabelValues("schema_error")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.cacheClears.WithLabelValues("denied")))
	assert.Equal(t, 0.0, promtest.ToFloat64(m.cacheClears.WithLabelValues("cleared")))
}

func TestManager_RejectedResponseCountedOnce(t *testing.T) {
	m := NewManager()
	events := service.NewDispatcher()
	m.Subscribe(events)
	ctx := context.Background()

	// the call itself succeeded; the body was thrown away afterwards
	events.Dispatch(ctx, service.EventUpstreamRequest, service.EventPayload{})
	events.Dispatch(ctx, service.EventDecodeFailed, service.EventPayload{})

	assert.Equal(t, 1, promtest.CollectAndCount(m.upstreamRequests))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.upstreamRequests.WithLabelValues("success")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.rejected.WithLabelValues("decode_error")))
}

func TestManager_Options(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewManager(WithNamespace("test"), WithSubsystem("pipeline"), WithRegistry(registry))
	m.cacheHits.Inc()

	families, err := registry.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_pipeline_cache_hits_total")
	assert.Same(t, registry, m.Registry())
}

func TestManager_HistogramBuckets(t *testing.T) {
	m := NewManager(WithHistogramBuckets([]float64{0.5, 1}))
	m.upstreamDuration.Observe(0.25)
	m.upstreamDuration.Observe(2)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var bounds []float64
	for _, f := range families {
		if f.GetName() != "psc_challenge_upstream_request_duration_seconds" {
			continue
		}
		for _, b := range f.GetMetric()[0].GetHistogram().GetBucket() {
			bounds = append(bounds, b.GetUpperBound())
		}
	}
	assert.Equal(t, []float64{0.5, 1}, bounds)

	// empty buckets keep the defaults
	assert.Equal(t, prometheus.DefBuckets, NewManager(WithHistogramBuckets(nil)).histogramBuckets)
}

func TestManager_HTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager()

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `psc_challenge_http_requests_total{route="/ping",status="200"} 1`)
}
