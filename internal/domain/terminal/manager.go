package terminal

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal/broadcast"
	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal/process"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/monitoring"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/resilience"
	"github.com/junedali-patel/codemind1/backend/internal/shared/id"
	"github.com/junedali-patel/codemind1/backend/internal/shared/types"
	"github.com/junedali-patel/codemind1/backend/internal/shared/utils"
)

const defaultReapInterval = 30 * time.Second

// shellEnv is added to the inherited environment of every shell
var shellEnv = []string{"TERM=xterm-256color"}

// Config controls terminal behaviour
type Config struct {
	Enabled      bool
	DefaultShell string
	BufferSize   int
	ReplaySize   int
	KillGrace    time.Duration
	// ReapAfter removes sessions this long after their shell exits; zero keeps them
	ReapAfter    time.Duration
	ReapInterval time.Duration
	// SpawnFailureThreshold consecutive spawn failures stop further attempts
	// for SpawnCooldown; zero disables the breaker
	SpawnFailureThreshold uint32
	SpawnCooldown         time.Duration
}

// WorkspaceResolver maps a workspace session id to its root directory
type WorkspaceResolver interface {
	Lookup(workspaceSessionID string) (types.Workspace, bool)
}

// Manager owns every terminal session
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	seq      uint64

	enabled    atomic.Bool
	cfg        Config
	workspaces WorkspaceResolver
	shell      *ShellResolver
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	spawns     *resilience.Breaker

	stopReaper   chan struct{}
	reaperDone   chan struct{}
	shutdownOnce sync.Once
}

// Option configures a Manager
type Option func(*Manager)

// WithMetrics records session and event metrics
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithShellResolver overrides how the shell command is chosen
func WithShellResolver(resolver *ShellResolver) Option {
	return func(m *Manager) {
		if resolver != nil {
			m.shell = resolver
		}
	}
}

// NewManager creates a terminal manager. The reaper starts only when
// cfg.ReapAfter is positive.
func NewManager(cfg Config, workspaces WorkspaceResolver, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = broadcast.DefaultCapacity
	}
	if cfg.ReplaySize <= 0 {
		cfg.ReplaySize = broadcast.DefaultReplaySize
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = defaultReapInterval
	}

	m := &Manager{
		sessions:   make(map[string]*Session),
		cfg:        cfg,
		workspaces: workspaces,
		shell:      NewShellResolver(cfg.DefaultShell),
		logger:     logger,
		stopReaper: make(chan struct{}),
		reaperDone: make(chan struct{}),
	}
	m.enabled.Store(cfg.Enabled)
	if cfg.SpawnFailureThreshold > 0 {
		m.spawns = resilience.New("shell-spawn", resilience.Settings{
			Threshold: cfg.SpawnFailureThreshold,
			Cooldown:  cfg.SpawnCooldown,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("Spawn breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}
	for _, opt := range opts {
		opt(m)
	}

	if cfg.ReapAfter > 0 {
		go m.runReaper()
	} else {
		close(m.reaperDone)
	}

	return m
}

// Enabled reports the feature flag
func (m *Manager) Enabled() bool {
	return m.enabled.Load()
}

// SetEnabled flips the feature flag at runtime
func (m *Manager) SetEnabled(enabled bool) {
	if m.enabled.Swap(enabled) != enabled {
		m.logger.Info("Interactive terminal toggled", zap.Bool("enabled", enabled))
	}
}

// Create starts a shell in the workspace's root directory.
// An empty name gets a default of the form "Terminal N".
func (m *Manager) Create(workspaceSessionID, name string) (*Session, error) {
	if !m.Enabled() {
		return nil, ErrDisabled
	}

	if err := validateWorkspaceID(workspaceSessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) != "" {
		trimmed, err := utils.ValidateName(name)
		if err != nil {
			return nil, validationError(err)
		}
		name = trimmed
	} else {
		name = ""
	}

	workspace, ok := m.workspaces.Lookup(workspaceSessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, workspaceSessionID)
	}

	done := m.metrics.TimeServiceCall("terminal", "create")
	command, args := m.shell.Resolve()
	if err := m.spawns.Allow(); err != nil {
		m.metrics.IncSpawnFailures()
		done("rejected")
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawn, command, err)
	}
	terminalID := id.NewTerminalID().String()
	logger := m.logger.With(
		zap.String("terminal_id", terminalID),
		zap.String("workspace_session_id", workspaceSessionID),
	)

	s := newSession(terminalID, workspace, command, broadcast.New(broadcast.Options{
		Capacity:   m.cfg.BufferSize,
		ReplaySize: m.cfg.ReplaySize,
		Logger:     logger,
	}))
	s.onEvent = func(eventType types.EventType) {
		m.metrics.RecordTerminalEvent(string(eventType))
	}

	proc, err := process.New(process.Spec{
		Command: command,
		Args:    args,
		Dir:     workspace.RootPath,
		Env:     shellEnv,
	}, s.handlers(), process.WithKillGrace(m.cfg.KillGrace), process.WithLogger(logger))
	m.spawns.Record(err)
	if err != nil {
		m.metrics.IncSpawnFailures()
		done("error")
		logger.Warn("Failed to spawn shell", zap.String("shell", command), zap.Error(err))
		return nil, err
	}
	s.process = proc

	count := m.register(s, name)

	s.emit(types.EventSystem, fmt.Sprintf("Starting %s in %s", command, workspace.RootPath))
	if err := proc.Start(); err != nil {
		return nil, err
	}

	m.metrics.IncTerminalSessionsCreated()
	m.metrics.SetTerminalSessionsActive(count)
	done("success")

	logger.Info("Terminal session created",
		zap.String("name", s.Name()),
		zap.String("shell", command),
		zap.String("cwd", workspace.RootPath),
		zap.Int("pid", proc.PID()),
	)

	return s, nil
}

// register stores the session, naming it when no name was given
func (m *Manager) register(s *Session, name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		n := 1
		for _, existing := range m.sessions {
			if existing.WorkspaceSessionID == s.WorkspaceSessionID {
				n++
			}
		}
		name = fmt.Sprintf("Terminal %d", n)
	}
	s.name = name

	m.seq++
	s.seq = m.seq
	m.sessions[s.ID] = s
	return len(m.sessions)
}

// Get returns a session and marks it accessed
func (m *Manager) Get(terminalID string) (*Session, error) {
	if !m.Enabled() {
		return nil, ErrDisabled
	}
	s, err := m.lookup(terminalID)
	if err != nil {
		return nil, err
	}
	s.touch()
	return s, nil
}

// ListByWorkspace returns the summaries of a workspace's sessions, oldest first
func (m *Manager) ListByWorkspace(workspaceSessionID string) ([]types.TerminalSummary, error) {
	if !m.Enabled() {
		return nil, ErrDisabled
	}
	if err := validateWorkspaceID(workspaceSessionID); err != nil {
		return nil, err
	}
	if _, ok := m.workspaces.Lookup(workspaceSessionID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, workspaceSessionID)
	}

	m.mu.RLock()
	matched := make([]*Session, 0)
	for _, s := range m.sessions {
		if s.WorkspaceSessionID == workspaceSessionID {
			matched = append(matched, s)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].seq < matched[j].seq
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	summaries := make([]types.TerminalSummary, len(matched))
	for i, s := range matched {
		summaries[i] = s.Summary()
	}
	return summaries, nil
}

// Rename changes a session's display name and returns the stored value
func (m *Manager) Rename(terminalID, name string) (string, error) {
	if !m.Enabled() {
		return "", ErrDisabled
	}
	trimmed, err := utils.ValidateName(name)
	if err != nil {
		return "", validationError(err)
	}
	s, err := m.lookup(terminalID)
	if err != nil {
		return "", err
	}

	s.setName(trimmed)
	return trimmed, nil
}

// WriteInput echoes text to viewers as a stdin event, then sends it to the shell
func (m *Manager) WriteInput(terminalID, text string) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	if err := utils.ValidateInput(text); err != nil {
		return validationError(err)
	}
	s, err := m.lookup(terminalID)
	if err != nil {
		return err
	}

	s.inputMu.Lock()
	defer s.inputMu.Unlock()

	if s.IsClosed() || s.process.State() != process.StateRunning {
		return ErrSessionClosed
	}

	s.touch()
	s.emit(types.EventStdin, text)
	if err := s.process.Write([]byte(text)); err != nil {
		// The echo is already out; record that the shell never got it
		s.emit(types.EventError, fmt.Sprintf("Input was not delivered: %v", err))
		if isClosedPipe(err) {
			return ErrSessionClosed
		}
		return fmt.Errorf("write to terminal %s: %w", terminalID, err)
	}
	return nil
}

// isClosedPipe reports errors from writing to a shell that has gone away
func isClosedPipe(err error) bool {
	return errors.Is(err, process.ErrNotRunning) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, os.ErrClosed)
}

// Resize records new dimensions. Without a pseudo-terminal the shell is
// not signalled; the values are kept for viewers.
func (m *Manager) Resize(terminalID string, cols, rows int) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	if err := utils.ValidateDimensions(cols, rows); err != nil {
		return validationError(err)
	}
	s, err := m.lookup(terminalID)
	if err != nil {
		return err
	}

	s.setSize(cols, rows)
	return nil
}

// Attach subscribes sink to a session's events and returns the replay window
func (m *Manager) Attach(terminalID string, sink broadcast.Sink) (*Session, []types.TerminalEvent, error) {
	if !m.Enabled() {
		return nil, nil, ErrDisabled
	}
	s, err := m.lookup(terminalID)
	if err != nil {
		return nil, nil, err
	}

	replay, err := s.broadcaster.Attach(sink)
	if err != nil {
		// Closed between lookup and attach
		return nil, nil, fmt.Errorf("%w: %s", ErrTerminalNotFound, terminalID)
	}
	s.touch()
	m.metrics.AddReplayedEvents(len(replay))

	return s, replay, nil
}

// Close terminates the shell, disconnects viewers and forgets the session
func (m *Manager) Close(terminalID string) error {
	if !m.Enabled() {
		return ErrDisabled
	}

	m.mu.Lock()
	s, ok := m.sessions[terminalID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTerminalNotFound, terminalID)
	}
	delete(m.sessions, terminalID)
	count := len(m.sessions)
	m.mu.Unlock()

	if err := s.release(); err != nil {
		m.logger.Warn("Failed to terminate shell",
			zap.String("terminal_id", terminalID),
			zap.Error(err),
		)
	}
	m.metrics.SetTerminalSessionsActive(count)

	m.logger.Info("Terminal session closed", zap.String("terminal_id", terminalID))
	return nil
}

// Count returns the number of registered sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown stops the reaper and closes every session regardless of the flag
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		close(m.stopReaper)
		<-m.reaperDone

		m.mu.Lock()
		sessions := make([]*Session, 0, len(m.sessions))
		for _, s := range m.sessions {
			sessions = append(sessions, s)
		}
		m.sessions = make(map[string]*Session)
		m.mu.Unlock()

		for _, s := range sessions {
			if err := s.release(); err != nil {
				m.logger.Warn("Failed to terminate shell",
					zap.String("terminal_id", s.ID),
					zap.Error(err),
				)
			}
		}
		m.metrics.SetTerminalSessionsActive(0)

		m.logger.Info("Terminal manager shut down", zap.Int("closed", len(sessions)))
	})
}

func (m *Manager) lookup(terminalID string) (*Session, error) {
	if err := utils.ValidateString(terminalID, "terminalId", 1, utils.MaxIDLength, true); err != nil {
		return nil, validationError(err)
	}
	if !id.HasPrefix(terminalID, id.TerminalPrefix) {
		return nil, fmt.Errorf("%w: %s", ErrTerminalNotFound, terminalID)
	}

	m.mu.RLock()
	s, ok := m.sessions[terminalID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTerminalNotFound, terminalID)
	}
	return s, nil
}

// validateWorkspaceID only requires an id to be present; the workspace
// registry owns the format, and unknown ids are reported as not found.
func validateWorkspaceID(workspaceSessionID string) error {
	if strings.TrimSpace(workspaceSessionID) == "" {
		return validationError(errors.New("workspaceSessionId is required"))
	}
	return nil
}
