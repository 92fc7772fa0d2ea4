package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// Terminal metrics
	TerminalSessionsActive  prometheus.Gauge
	TerminalSessionsCreated prometheus.Counter
	TerminalSpawnFailures   prometheus.Counter
	TerminalEvents          *prometheus.CounterVec

	// Stream metrics
	StreamConnections   *prometheus.GaugeVec
	ReplayedEvents      prometheus.Counter
	SubscriberOverflows prometheus.Counter

	startTime time.Time

	// Snapshot for the health endpoint
	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveSessions    int64   `json:"active_sessions"`
	ActiveConnections int64   `json:"active_connections"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Service metrics
		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_service_calls_total",
				Help: "Total number of service calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_service_duration_seconds",
				Help:    "Service call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "method"},
		),

		// Terminal metrics
		TerminalSessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "terminal_sessions_active",
				Help: "Number of registered terminal sessions",
			},
		),
		TerminalSessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "terminal_sessions_created_total",
				Help: "Total number of terminal sessions created",
			},
		),
		TerminalSpawnFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "terminal_spawn_failures_total",
				Help: "Total number of shell processes that failed to spawn",
			},
		),
		TerminalEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "terminal_events_total",
				Help: "Total number of terminal events appended, by type",
			},
			[]string{"type"},
		),

		// Stream metrics
		StreamConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "terminal_stream_connections",
				Help: "Number of open terminal stream connections",
			},
			[]string{"transport"},
		),
		ReplayedEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "terminal_replayed_events_total",
				Help: "Total number of events replayed to newly attached subscribers",
			},
		),
		SubscriberOverflows: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "terminal_subscriber_overflows_total",
				Help: "Total number of stream subscribers dropped for falling too far behind",
			},
		),
	}

	// System metrics
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "backend_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry all metrics are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordServiceCall records a service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// TimeServiceCall starts timing one call; the returned func records it
// with the final status
func (m *Metrics) TimeServiceCall(service, method string) func(status string) {
	start := time.Now()
	return func(status string) {
		m.RecordServiceCall(service, method, status, time.Since(start))
	}
}

// SetTerminalSessionsActive sets the number of registered terminal sessions
func (m *Metrics) SetTerminalSessionsActive(count int) {
	if m == nil {
		return
	}
	m.TerminalSessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// IncTerminalSessionsCreated increments the created sessions counter
func (m *Metrics) IncTerminalSessionsCreated() {
	if m == nil {
		return
	}
	m.TerminalSessionsCreated.Inc()
}

// IncSpawnFailures increments the spawn failure counter
func (m *Metrics) IncSpawnFailures() {
	if m == nil {
		return
	}
	m.TerminalSpawnFailures.Inc()
}

// RecordTerminalEvent counts one appended terminal event
func (m *Metrics) RecordTerminalEvent(eventType string) {
	if m == nil {
		return
	}
	m.TerminalEvents.WithLabelValues(eventType).Inc()
}

// IncStreamConnections increments open stream connections for a transport
func (m *Metrics) IncStreamConnections(transport string) {
	if m == nil {
		return
	}
	m.StreamConnections.WithLabelValues(transport).Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecStreamConnections decrements open stream connections for a transport
func (m *Metrics) DecStreamConnections(transport string) {
	if m == nil {
		return
	}
	m.StreamConnections.WithLabelValues(transport).Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// AddReplayedEvents counts events replayed on attach
func (m *Metrics) AddReplayedEvents(count int) {
	if m == nil {
		return
	}
	m.ReplayedEvents.Add(float64(count))
}

// IncSubscriberOverflows counts a subscriber dropped for overflowing its queue
func (m *Metrics) IncSubscriberOverflows() {
	if m == nil {
		return
	}
	m.SubscriberOverflows.Inc()
}

// Snapshot returns the current values tracked for the health endpoint
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
