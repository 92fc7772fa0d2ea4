package terminal

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal/broadcast"
	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal/process"
	"github.com/junedali-patel/codemind1/backend/internal/shared/types"
)

// Default terminal dimensions
const (
	DefaultCols = 80
	DefaultRows = 24
)

// Session is one interactive shell bound to a workspace
type Session struct {
	ID                 string
	WorkspaceSessionID string
	Shell              string
	Cwd                string
	CreatedAt          time.Time

	seq         uint64
	process     *process.Process
	broadcaster *broadcast.Broadcaster
	onEvent     func(types.EventType)

	mu             sync.RWMutex
	name           string
	cols           int
	rows           int
	lastAccessedAt time.Time
	exitedAt       time.Time
	exitCode       *int

	closed atomic.Bool

	// inputMu keeps the stdin echo and the write to the process in one order
	inputMu sync.Mutex
}

func newSession(terminalID string, workspace types.Workspace, shell string, broadcaster *broadcast.Broadcaster) *Session {
	now := time.Now()
	return &Session{
		ID:                 terminalID,
		WorkspaceSessionID: workspace.ID,
		Shell:              shell,
		Cwd:                workspace.RootPath,
		CreatedAt:          now,
		broadcaster:        broadcaster,
		cols:               DefaultCols,
		rows:               DefaultRows,
		lastAccessedAt:     now,
	}
}

// Name returns the display name
func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Size returns the last recorded dimensions
func (s *Session) Size() (cols, rows int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols, s.rows
}

// IsClosed reports whether the shell has exited
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done is closed once the shell process has exited
func (s *Session) Done() <-chan struct{} {
	return s.process.Done()
}

// Detach removes a stream sink previously attached through the manager
func (s *Session) Detach(sink broadcast.Sink) bool {
	return s.broadcaster.Detach(sink)
}

// Events returns the whole retained event log, oldest first
func (s *Session) Events() []types.TerminalEvent {
	return s.broadcaster.Events()
}

// Summary returns the metadata view of the session
func (s *Session) Summary() types.TerminalSummary {
	s.mu.RLock()
	summary := types.TerminalSummary{
		TerminalID:         s.ID,
		WorkspaceSessionID: s.WorkspaceSessionID,
		Name:               s.name,
		Shell:              s.Shell,
		Cwd:                s.Cwd,
		Cols:               s.cols,
		Rows:               s.rows,
		CreatedAt:          s.CreatedAt,
		LastAccessedAt:     s.lastAccessedAt,
	}
	if s.exitCode != nil {
		code := *s.exitCode
		summary.ExitCode = &code
	}
	s.mu.RUnlock()

	summary.IsClosed = s.closed.Load()
	summary.Subscribers = s.broadcaster.SubscriberCount()
	return summary
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccessedAt = time.Now()
	s.mu.Unlock()
}

func (s *Session) setName(name string) {
	s.mu.Lock()
	s.name = name
	s.lastAccessedAt = time.Now()
	s.mu.Unlock()
}

func (s *Session) setSize(cols, rows int) {
	s.mu.Lock()
	s.cols = cols
	s.rows = rows
	s.lastAccessedAt = time.Now()
	s.mu.Unlock()
}

func (s *Session) exitTime() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exitedAt, !s.exitedAt.IsZero()
}

func (s *Session) emit(eventType types.EventType, data string) {
	s.broadcaster.Append(types.NewTerminalEvent(eventType, data))
	if s.onEvent != nil {
		s.onEvent(eventType)
	}
}

// handlers wires process notifications into the event log
func (s *Session) handlers() process.Handlers {
	return process.Handlers{
		OnStdout: func(chunk string) { s.emit(types.EventStdout, chunk) },
		OnStderr: func(chunk string) { s.emit(types.EventStderr, chunk) },
		OnError:  func(err error) { s.emit(types.EventError, err.Error()) },
		OnExit:   s.markExited,
	}
}

func (s *Session) markExited(status process.ExitStatus) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	code := status.Code
	s.exitCode = &code
	s.exitedAt = time.Now()
	s.mu.Unlock()

	s.emit(types.EventExit, status.String())
}

// release stops the shell and disconnects every viewer
func (s *Session) release() error {
	var err error
	if s.process != nil {
		err = s.process.Terminate()
	}
	s.broadcaster.Close()
	return err
}
