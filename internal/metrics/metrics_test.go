package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.RecordUpstream("list", 10*time.Millisecond, nil)
	m.RecordUpstream("list", 10*time.Millisecond, errors.New("boom"))
	m.RecordRetry()
	m.RecordCacheLookup("hit")
	m.RecordCacheLookup("hit")
	m.RecordDiscard()
	m.SetActiveSessions(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequestsTotal.WithLabelValues("list", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequestsTotal.WithLabelValues("list", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRetriesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.discardedResponsesTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordUpstream("list", time.Second, nil)
		m.RecordRetry()
		m.RecordCacheLookup("miss")
		m.RecordDiscard()
		m.RecordRateLimitHit()
		m.SetActiveSessions(1)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_HandlerAndMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `explorer_http_requests_total{method="GET",route="/ping",status="200"} 1`)
}
