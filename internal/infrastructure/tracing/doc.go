/*
Package tracing provides lightweight request tracing.

# Overview

Every HTTP request gets a span. A trace id arriving in the X-Trace-ID header
is continued, otherwise a new one is generated. The trace and span ids are
echoed back in response headers so a client can quote them when reporting a
stuck terminal stream.

# Usage

	tracer := tracing.New("backend", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "terminal.create")
	span.SetTag("workspace_id", workspaceID)
	session, err := manager.Create(workspaceID, shell)
	tracer.Finish(span, 0, err)

Stream handlers read GetTraceID to stamp the trace id on the ready frame,
and the WebSocket handler copies it onto the upgrade response with
InjectTraceContext.

# Trace Format

Ids travel in two headers: X-Trace-ID names the whole request flow and
X-Span-ID the operation that made the call.

Completed spans are buffered (1000 spans) and written to the logger by a
single collector goroutine. Spans are dropped rather than blocking when the
buffer is full.
*/
package tracing
