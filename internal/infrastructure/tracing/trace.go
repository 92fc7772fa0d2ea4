package tracing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/junedali-patel/codemind1/backend/internal/shared/id"
)

// TraceID identifies one request flow across services
type TraceID string

// SpanID identifies one operation within a trace
type SpanID string

// Span is a single timed operation
type Span struct {
	TraceID  TraceID
	SpanID   SpanID
	ParentID SpanID
	Name     string
	Service  string
	Start    time.Time
	Duration time.Duration
	Tags     map[string]string
	Status   int
	Err      error
}

// SetTag attaches a key/value pair logged with the span
func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

const spanBufferSize = 1000

type contextKey int

const (
	traceIDKey contextKey = iota
	spanIDKey
)

// Tracer hands out spans and logs them from a single collector goroutine
type Tracer struct {
	service string
	logger  *zap.Logger
	spans   chan *Span

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// New starts a tracer for service. A nil logger discards spans.
func New(service string, logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		service: service,
		logger:  logger,
		spans:   make(chan *Span, spanBufferSize),
		done:    make(chan struct{}),
	}
	go t.collect()
	return t
}

// Close drains buffered spans and stops the collector
func (t *Tracer) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.spans)
	t.mu.Unlock()

	<-t.done
}

// StartSpan opens a span under whatever trace ctx carries, starting a new
// trace when it carries none
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID := GetTraceID(ctx)
	if traceID == "" {
		traceID = TraceID(id.NewRequestID())
	}
	parentID, _ := ctx.Value(spanIDKey).(SpanID)

	span := &Span{
		TraceID:  traceID,
		SpanID:   SpanID(id.Default().GenerateString()),
		ParentID: parentID,
		Name:     name,
		Service:  t.service,
		Start:    time.Now(),
		Tags:     make(map[string]string),
	}

	ctx = context.WithValue(ctx, traceIDKey, traceID)
	ctx = context.WithValue(ctx, spanIDKey, span.SpanID)
	return span, ctx
}

// Finish stamps the span's outcome and queues it for logging. Spans
// finished after Close, or while the buffer is full, are dropped.
func (t *Tracer) Finish(span *Span, status int, err error) {
	span.Duration = time.Since(span.Start)
	span.Status = status
	span.Err = err

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}

	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", string(span.TraceID)),
			zap.String("span_id", string(span.SpanID)),
		)
	}
}

func (t *Tracer) collect() {
	defer close(t.done)
	for span := range t.spans {
		t.log(span)
	}
}

func (t *Tracer) log(span *Span) {
	fields := []zap.Field{
		zap.String("trace_id", string(span.TraceID)),
		zap.String("span_id", string(span.SpanID)),
		zap.String("operation", span.Name),
		zap.Duration("duration", span.Duration),
		zap.String("service", span.Service),
	}
	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(span.ParentID)))
	}
	if span.Status != 0 {
		fields = append(fields, zap.Int("status", span.Status))
	}
	for key, value := range span.Tags {
		fields = append(fields, zap.String(key, value))
	}

	if span.Err != nil {
		t.logger.Error("span completed with error", append(fields, zap.Error(span.Err))...)
		return
	}
	t.logger.Debug("span completed", fields...)
}

// Continue returns ctx joined to a trace started elsewhere. Empty ids are
// ignored so StartSpan falls back to a fresh trace.
func Continue(ctx context.Context, traceID TraceID, parentID SpanID) context.Context {
	if traceID != "" {
		ctx = context.WithValue(ctx, traceIDKey, traceID)
	}
	if parentID != "" {
		ctx = context.WithValue(ctx, spanIDKey, parentID)
	}
	return ctx
}

// InjectTraceContext writes the trace and span ids carried by ctx into
// headers, keyed by their HTTP header names
func InjectTraceContext(ctx context.Context, headers map[string]string) {
	if traceID := GetTraceID(ctx); traceID != "" {
		headers[HeaderTraceID] = string(traceID)
	}
	if spanID, ok := ctx.Value(spanIDKey).(SpanID); ok && spanID != "" {
		headers[HeaderSpanID] = string(spanID)
	}
}

// GetTraceID returns the trace id carried by ctx, or ""
func GetTraceID(ctx context.Context) TraceID {
	traceID, _ := ctx.Value(traceIDKey).(TraceID)
	return traceID
}
