package tracing

import (
	"github.com/gin-gonic/gin"
)

// Trace propagation headers
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

// HTTPMiddleware opens a span per request, continuing the caller's trace
// when it sends one, and echoes the ids in the response headers.
//
// Upgraded connections (WebSocket) bypass these response headers; the
// upgrading handler copies them with InjectTraceContext.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := Continue(c.Request.Context(),
			TraceID(c.GetHeader(HeaderTraceID)),
			SpanID(c.GetHeader(HeaderSpanID)),
		)

		operation := c.FullPath()
		if operation == "" {
			operation = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+operation)
		if terminalID := c.Param("id"); terminalID != "" {
			span.SetTag("terminal_id", terminalID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderTraceID, string(span.TraceID))
		c.Header(HeaderSpanID, string(span.SpanID))

		c.Next()

		var err error
		if last := c.Errors.Last(); last != nil {
			err = last.Err
		}
		tracer.Finish(span, c.Writer.Status(), err)
	}
}
