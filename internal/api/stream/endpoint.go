package stream

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal"
	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal/broadcast"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/monitoring"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/tracing"
	"github.com/junedali-patel/codemind1/backend/internal/shared/id"
	"github.com/junedali-patel/codemind1/backend/internal/shared/types"
)

// Stream event names
const (
	EventReady     = "ready"
	EventMessage   = "message"
	EventHeartbeat = "heartbeat"
)

// Defaults
const (
	DefaultHeartbeat = 15 * time.Second
	DefaultQueueSize = 4096
)

// Frame is one unit written to a client
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Ready is the payload of the first frame on every stream
type Ready struct {
	TerminalID         string `json:"terminalId"`
	WorkspaceSessionID string `json:"workspaceSessionId"`
	Name               string `json:"name"`
	Cwd                string `json:"cwd"`
	Shell              string `json:"shell"`
	Cols               int    `json:"cols"`
	Rows               int    `json:"rows"`
	IsClosed           bool   `json:"isClosed"`
	Replayed           int    `json:"replayed"`
	TraceID            string `json:"traceId,omitempty"`
}

// Emitter writes frames to one client connection
type Emitter interface {
	Emit(frame Frame) error
}

// Attacher subscribes sinks to terminal sessions
type Attacher interface {
	Attach(terminalID string, sink broadcast.Sink) (*terminal.Session, []types.TerminalEvent, error)
}

// Config controls stream timing and buffering
type Config struct {
	Heartbeat time.Duration
	QueueSize int
}

// Endpoint serves the terminal streaming protocol over any Emitter
type Endpoint struct {
	terminals Attacher
	cfg       Config
	logger    *zap.Logger
	metrics   *monitoring.Metrics
}

// NewEndpoint creates a stream endpoint
func NewEndpoint(terminals Attacher, cfg Config, logger *zap.Logger, metrics *monitoring.Metrics) *Endpoint {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Endpoint{
		terminals: terminals,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// Subscription is one attached viewer. It must be either Run or Closed.
type Subscription struct {
	ID        id.ConnectionID
	Session   *terminal.Session
	transport string

	replay    []types.TerminalEvent
	sink      *QueueSink
	endpoint  *Endpoint
	logger    *zap.Logger
	closeOnce sync.Once
}

// Open attaches a new viewer to a terminal. Lookup failures are returned
// here, before anything is written to the client.
func (e *Endpoint) Open(terminalID, transport string) (*Subscription, error) {
	sink := NewQueueSink(e.cfg.QueueSize)
	session, replay, err := e.terminals.Attach(terminalID, sink)
	if err != nil {
		return nil, err
	}

	connID := id.NewConnectionID()
	sub := &Subscription{
		ID:        connID,
		Session:   session,
		transport: transport,
		replay:    replay,
		sink:      sink,
		endpoint:  e,
		logger: e.logger.With(
			zap.String("terminal_id", session.ID),
			zap.String("connection_id", connID.String()),
			zap.String("transport", transport),
		),
	}

	e.metrics.IncStreamConnections(transport)
	sub.logger.Debug("Stream attached", zap.Int("replayed", len(replay)))
	return sub, nil
}

// Run writes ready, the replay and then live events with heartbeats until
// ctx is cancelled, the emitter fails, the session is closed or the viewer
// overflows. The subscription is closed when Run returns.
func (s *Subscription) Run(ctx context.Context, emitter Emitter) error {
	defer s.Close()

	summary := s.Session.Summary()
	ready := Ready{
		TerminalID:         summary.TerminalID,
		WorkspaceSessionID: summary.WorkspaceSessionID,
		Name:               summary.Name,
		Cwd:                summary.Cwd,
		Shell:              summary.Shell,
		Cols:               summary.Cols,
		Rows:               summary.Rows,
		IsClosed:           summary.IsClosed,
		Replayed:           len(s.replay),
		TraceID:            string(tracing.GetTraceID(ctx)),
	}
	if err := emitter.Emit(Frame{Event: EventReady, Data: ready}); err != nil {
		return err
	}

	for _, event := range s.replay {
		if err := emitter.Emit(Frame{Event: EventMessage, Data: event}); err != nil {
			return err
		}
	}
	s.replay = nil

	heartbeat := time.NewTicker(s.endpoint.cfg.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-heartbeat.C:
			event := types.NewTerminalEvent(types.EventHeartbeat, "")
			if err := emitter.Emit(Frame{Event: EventHeartbeat, Data: event}); err != nil {
				return err
			}

		case <-s.sink.Notify():
			if err := s.flush(emitter); err != nil {
				return err
			}

		case <-s.sink.Done():
			if s.sink.Overflowed() {
				s.endpoint.metrics.IncSubscriberOverflows()
				s.logger.Warn("Stream subscriber fell behind, disconnecting")
				return ErrOverflow
			}
			// Session closed; deliver what was queued before the close
			return s.flush(emitter)
		}
	}
}

func (s *Subscription) flush(emitter Emitter) error {
	for _, event := range s.sink.Drain() {
		if err := emitter.Emit(Frame{Event: EventMessage, Data: event}); err != nil {
			return err
		}
	}
	return nil
}

// Close detaches the viewer. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.Session.Detach(s.sink)
		_ = s.sink.Close()
		s.endpoint.metrics.DecStreamConnections(s.transport)
		s.logger.Debug("Stream detached")
	})
}
