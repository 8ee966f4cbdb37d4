package tracing

import (
	"github.com/gin-gonic/gin"
)

// HeaderTraceID carries the trace ID on requests and responses.
const HeaderTraceID = "X-Trace-ID"

// HTTPMiddleware creates Gin middleware that stamps every request with a
// trace ID and submits a span once the handler chain completes.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(HeaderTraceID); incoming != "" {
			ctx = WithTraceID(ctx, TraceID(incoming))
		}

		name := c.FullPath()
		if name == "" {
			name = "asset"
		}
		span, ctx := tracer.StartSpan(ctx, "http", name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderTraceID, string(span.TraceID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}

		span.Finish()
		tracer.Submit(span)
	}
}
