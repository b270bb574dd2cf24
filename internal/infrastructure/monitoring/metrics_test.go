package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	if c := pb.GetCounter(); c != nil {
		return c.GetValue()
	}
	return pb.GetGauge().GetValue()
}

func TestInstancesDoNotCollide(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.CycleStarted()
	assert.Equal(t, 1.0, value(t, a.CyclesStarted))
	assert.Equal(t, 0.0, value(t, b.CyclesStarted))
}

func TestJobAndCycleMetrics(t *testing.T) {
	m := NewMetrics()

	m.JobStarted()
	m.JobStarted()
	m.JobFinished("succeeded", 2*time.Second)
	m.CycleFinished("completed", time.Second)
	m.LogAttempt(false)
	m.LogAttempt(false)
	m.LogAttempt(true)

	assert.Equal(t, 2.0, value(t, m.JobsStarted))
	assert.Equal(t, 1.0, value(t, m.JobsActive))
	assert.Equal(t, 1.0, value(t, m.JobsFinished.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, value(t, m.CyclesFinished.WithLabelValues("completed")))
	assert.Equal(t, 2.0, value(t, m.LogPollAttempts.WithLabelValues("not_ready")))
	assert.Equal(t, 1.0, value(t, m.LogPollAttempts.WithLabelValues("ready")))

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.JobsStarted)
	assert.Equal(t, int64(1), s.JobsActive)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/code/log", func(c *gin.Context) {
		c.String(http.StatusTooEarly, "")
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/code/log", nil))
		require.Equal(t, http.StatusTooEarly, w.Code)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 3.0, value(t, m.RequestsTotal.WithLabelValues("GET", "/code/log", "425")))
	assert.Equal(t, 1.0, value(t, m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, int64(4), m.Snapshot().TotalErrors)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `vizy_http_requests_total{method="GET",path="/code/log",status="425"} 3`)
	assert.Contains(t, w.Body.String(), "vizy_uptime_seconds")
}

func TestValues(t *testing.T) {
	m := NewMetrics()
	m.CycleStarted()
	m.LogAttempt(false)
	m.LogAttempt(false)
	m.LogAttempt(true)
	m.CycleFinished("completed", time.Second)

	values, err := m.Values("vizy_client_")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"vizy_client_cycles_started_total":    1,
		"vizy_client_cycles_finished_total":   1,
		"vizy_client_cycle_duration_seconds":  1,
		"vizy_client_log_poll_attempts_total": 3,
	}, values)
}
