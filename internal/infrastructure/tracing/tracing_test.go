package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStartSpanGeneratesTraceID(t *testing.T) {
	tracer := New("test", nil)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(context.Background(), "op")
	assert.True(t, strings.HasPrefix(string(span.TraceID), "req_"))
	assert.NotEmpty(t, span.SpanID)
	assert.Empty(t, span.ParentID)
	assert.Equal(t, span.TraceID, GetTraceID(ctx))

	child, _ := tracer.StartSpan(ctx, "child")
	assert.Equal(t, span.TraceID, child.TraceID)
	assert.Equal(t, span.SpanID, child.ParentID)
}

func TestContinueJoinsRemoteTrace(t *testing.T) {
	tracer := New("test", nil)
	defer tracer.Close()

	ctx := Continue(context.Background(), "trace-remote", "span-remote")
	span, _ := tracer.StartSpan(ctx, "op")
	assert.Equal(t, TraceID("trace-remote"), span.TraceID)
	assert.Equal(t, SpanID("span-remote"), span.ParentID)

	// Empty ids leave the context untouched
	assert.Equal(t, context.Background(), Continue(context.Background(), "", ""))
}

func TestHTTPMiddlewarePropagatesTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New("test", zap.New(core))

	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	var seen TraceID
	router.GET("/api/terminal/sessions/:id", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/terminal/sessions/term_1", nil)
	req.Header.Set(HeaderTraceID, "trace-abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-abc", w.Header().Get(HeaderTraceID))
	assert.NotEmpty(t, w.Header().Get(HeaderSpanID))
	assert.Equal(t, TraceID("trace-abc"), seen)

	tracer.Close()

	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "trace-abc", fields["trace_id"])
	assert.Equal(t, "GET /api/terminal/sessions/:id", fields["operation"])
	assert.Equal(t, "term_1", fields["terminal_id"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestHTTPMiddlewareLogsHandlerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New("test", zap.New(core))

	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.POST("/api/terminal/sessions", func(c *gin.Context) {
		_ = c.Error(errors.New("spawn failed"))
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/terminal/sessions", nil))
	tracer.Close()

	entries := logs.FilterMessage("span completed with error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "spawn failed", entries[0].ContextMap()["error"])
}

func TestFinishAfterCloseIsDropped(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New("test", zap.New(core))
	tracer.Close()
	tracer.Close()

	span, _ := tracer.StartSpan(context.Background(), "late")
	assert.NotPanics(t, func() { tracer.Finish(span, http.StatusOK, nil) })
	assert.Zero(t, logs.Len())
}

func TestInjectTraceContext(t *testing.T) {
	tracer := New("test", nil)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(context.Background(), "op")
	headers := map[string]string{}
	InjectTraceContext(ctx, headers)

	assert.Equal(t, string(span.TraceID), headers[HeaderTraceID])
	assert.Equal(t, string(span.SpanID), headers[HeaderSpanID])

	empty := map[string]string{}
	InjectTraceContext(context.Background(), empty)
	assert.Empty(t, empty)
}
