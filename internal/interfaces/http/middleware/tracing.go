package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/immo/backend/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracing returns the otelgin server span middleware followed by a handler
// that tags the still-open span with the request ID once the rest of the
// chain has run. Install both, in order, ahead of the request logger.
func Tracing(serviceName string, opts ...otelgin.Option) gin.HandlersChain {
	return gin.HandlersChain{
		otelgin.Middleware(serviceName, opts...),
		traceAttributes,
	}
}

func traceAttributes(c *gin.Context) {
	c.Next()

	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	if requestID := logger.GetRequestID(c.Request.Context()); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if route := c.FullPath(); route != "" {
		span.SetAttributes(attribute.String("http.route", route))
	}
}
