package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/vizy/internal/infrastructure/logging"
)

func observed() (*Tracer, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return New("test", &logging.Logger{Logger: zap.New(core)}), logs
}

func TestStartSpanKeepsTrace(t *testing.T) {
	tracer, _ := observed()

	ctx := WithTraceID(context.Background(), "cycle-1")
	span, ctx := tracer.StartSpan(ctx, "op")

	assert.Equal(t, TraceID("cycle-1"), span.TraceID)
	assert.NotEmpty(t, span.SpanID)
	assert.Equal(t, span.SpanID, GetSpanID(ctx))

	fresh, _ := tracer.StartSpan(context.Background(), "op")
	assert.NotEmpty(t, fresh.TraceID)
	assert.NotEqual(t, TraceID("cycle-1"), fresh.TraceID)
}

func TestInject(t *testing.T) {
	h := http.Header{}
	Inject(context.Background(), h)
	assert.Empty(t, h.Get(HeaderTraceID))

	Inject(WithTraceID(context.Background(), "abc"), h)
	assert.Equal(t, "abc", h.Get(HeaderTraceID))
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := observed()

	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/code/log", func(c *gin.Context) {
		assert.Equal(t, TraceID("cycle-7"), GetTraceID(c.Request.Context()))
		c.Status(http.StatusTooEarly)
	})
	router.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/code/log", nil)
	req.Header.Set(HeaderTraceID, "cycle-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "cycle-7", w.Header().Get(HeaderTraceID))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.DebugLevel, entry.Level)
	assert.Equal(t, "GET /code/log", entry.ContextMap()["operation"])
	assert.Equal(t, "cycle-7", entry.ContextMap()["trace_id"])

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zap.WarnLevel, logs.All()[1].Level)
}
