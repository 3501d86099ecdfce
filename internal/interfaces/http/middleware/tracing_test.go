package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/immo/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func newTracedRouter() (*gin.Engine, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	router := gin.New()
	router.Use(Tracing("immo-test", otelgin.WithTracerProvider(provider))...)
	router.Use(logger.GinMiddleware(zap.NewNop()))
	router.GET("/sales/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/boom", func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "boom")
	})
	return router, recorder
}

func TestTracing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("tags the span with the request id and route", func(t *testing.T) {
		router, recorder := newTracedRouter()
		req := httptest.NewRequest(http.MethodGet, "/sales/42", nil)
		req.Header.Set(logger.RequestIDHeader, "req-7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		spans := recorder.Ended()
		require.Len(t, spans, 1)
		requestID, ok := spanAttr(spans[0], "request_id")
		require.True(t, ok)
		assert.Equal(t, "req-7", requestID.AsString())
		route, ok := spanAttr(spans[0], "http.route")
		require.True(t, ok)
		assert.Equal(t, "/sales/:id", route.AsString())
	})

	t.Run("server errors mark the span as failed", func(t *testing.T) {
		router, recorder := newTracedRouter()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})
}
