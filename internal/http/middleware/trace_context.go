package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/competency-advisor/internal/pkg/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxCorrelationIDLen = 64
)

// AttachTraceContext puts trace and request ids on the request context, the
// response headers and the active span. Once the handler chain has run, the
// span also carries the employee resolved by the auth middleware.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		reqID := correlationID(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		traceID := correlationID(c.GetHeader(headerTraceID))
		if traceID == "" {
			if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
				traceID = sc.TraceID().String()
			} else {
				traceID = uuid.New().String()
			}
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		}))
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)

		span := trace.SpanFromContext(ctx)
		span.SetAttributes(attribute.String("http.request_id", reqID))

		c.Next()

		if id := ctxutil.EmployeeID(c.Request.Context()); id > 0 {
			span.SetAttributes(attribute.Int64("employee.id", id))
		}
	}
}

// correlationID returns a caller-supplied id only when it is short and made
// of id characters, and "" otherwise.
func correlationID(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxCorrelationIDLen {
		return ""
	}
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return ""
		}
	}
	return raw
}
