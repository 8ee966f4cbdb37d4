/*
Package tracing stamps HTTP requests and host link messages with trace IDs and
logs each finished operation through zap.

Spans are collected on a background goroutine so request handlers never block
on logging. Incoming X-Trace-ID headers are honoured; otherwise a req_* ULID is
minted and echoed back on the response.

	tracer := tracing.New(logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))
*/
package tracing
