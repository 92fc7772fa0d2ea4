package stream

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal"
	"github.com/junedali-patel/codemind1/backend/internal/domain/workspace"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/tracing"
	"github.com/junedali-patel/codemind1/backend/internal/shared/types"
)

// recordingEmitter collects frames and can be told to fail
type recordingEmitter struct {
	mu     sync.Mutex
	frames []Frame
	failAt int // fail the nth Emit (1-based); zero never fails
}

func (e *recordingEmitter) Emit(frame Frame) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failAt > 0 && len(e.frames)+1 == e.failAt {
		return errors.New("client went away")
	}
	e.frames = append(e.frames, frame)
	return nil
}

func (e *recordingEmitter) snapshot() []Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Frame(nil), e.frames...)
}

func (e *recordingEmitter) hasMessage(match func(types.TerminalEvent) bool) bool {
	for _, f := range e.snapshot() {
		if event, ok := f.Data.(types.TerminalEvent); ok && f.Event == EventMessage && match(event) {
			return true
		}
	}
	return false
}

func newTestTerminals(t *testing.T) (*terminal.Manager, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}

	root := t.TempDir()
	registry := workspace.NewRegistry()
	_, err := registry.Register("ws-1", root)
	require.NoError(t, err)

	mgr := terminal.NewManager(terminal.Config{
		Enabled:      true,
		DefaultShell: "/bin/sh",
		KillGrace:    500 * time.Millisecond,
	}, registry, nil)
	t.Cleanup(mgr.Shutdown)
	return mgr, root
}

func runAsync(ctx context.Context, sub *Subscription, emitter Emitter) <-chan error {
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx, emitter) }()
	return done
}

func waitResult(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop")
		return nil
	}
}

func TestSubscription_ReadyReplayLive(t *testing.T) {
	mgr, root := newTestTerminals(t)
	endpoint := NewEndpoint(mgr, Config{Heartbeat: time.Hour}, nil, nil)

	session, err := mgr.Create("ws-1", "")
	require.NoError(t, err)

	sub, err := endpoint.Open(session.ID, "test")
	require.NoError(t, err)
	assert.Equal(t, 1, session.Summary().Subscribers)

	emitter := &recordingEmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, sub, emitter)

	require.Eventually(t, func() bool { return len(emitter.snapshot()) >= 2 }, 5*time.Second, 10*time.Millisecond)

	frames := emitter.snapshot()
	assert.Equal(t, EventReady, frames[0].Event)
	ready, ok := frames[0].Data.(Ready)
	require.True(t, ok)
	assert.Equal(t, session.ID, ready.TerminalID)
	assert.Equal(t, root, ready.Cwd)
	assert.Equal(t, "/bin/sh", ready.Shell)

	assert.Equal(t, EventMessage, frames[1].Event)
	first, ok := frames[1].Data.(types.TerminalEvent)
	require.True(t, ok)
	assert.Equal(t, types.EventSystem, first.Type)
	assert.Contains(t, first.Data, root)

	require.NoError(t, mgr.WriteInput(session.ID, "echo live\n"))
	require.Eventually(t, func() bool {
		return emitter.hasMessage(func(e types.TerminalEvent) bool {
			return e.Type == types.EventStdout && strings.Contains(e.Data, "live")
		})
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, emitter.hasMessage(func(e types.TerminalEvent) bool {
		return e.Type == types.EventStdin && e.Data == "echo live\n"
	}))

	cancel()
	assert.NoError(t, waitResult(t, done))
	assert.Equal(t, 0, session.Summary().Subscribers)
}

func TestEndpoint_OpenUnknownTerminal(t *testing.T) {
	mgr, _ := newTestTerminals(t)
	endpoint := NewEndpoint(mgr, Config{}, nil, nil)

	_, err := endpoint.Open("term_missing", "test")
	assert.ErrorIs(t, err, terminal.ErrNotFound)
}

func TestSubscription_Heartbeat(t *testing.T) {
	mgr, _ := newTestTerminals(t)
	endpoint := NewEndpoint(mgr, Config{Heartbeat: 20 * time.Millisecond}, nil, nil)

	session, err := mgr.Create("ws-1", "")
	require.NoError(t, err)
	sub, err := endpoint.Open(session.ID, "test")
	require.NoError(t, err)

	emitter := &recordingEmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, sub, emitter)

	require.Eventually(t, func() bool {
		for _, f := range emitter.snapshot() {
			if f.Event == EventHeartbeat {
				event, ok := f.Data.(types.TerminalEvent)
				return ok && event.Type == types.EventHeartbeat && event.Timestamp != ""
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, waitResult(t, done))
}

func TestSubscription_EndsWhenSessionCloses(t *testing.T) {
	mgr, _ := newTestTerminals(t)
	endpoint := NewEndpoint(mgr, Config{Heartbeat: time.Hour}, nil, nil)

	session, err := mgr.Create("ws-1", "")
	require.NoError(t, err)
	sub, err := endpoint.Open(session.ID, "test")
	require.NoError(t, err)

	done := runAsync(context.Background(), sub, &recordingEmitter{})

	require.NoError(t, mgr.Close(session.ID))
	assert.NoError(t, waitResult(t, done))

	_, err = endpoint.Open(session.ID, "test")
	assert.ErrorIs(t, err, terminal.ErrNotFound)
}

func TestSubscription_EmitFailureDetaches(t *testing.T) {
	mgr, _ := newTestTerminals(t)
	endpoint := NewEndpoint(mgr, Config{Heartbeat: time.Hour}, nil, nil)

	session, err := mgr.Create("ws-1", "")
	require.NoError(t, err)
	sub, err := endpoint.Open(session.ID, "test")
	require.NoError(t, err)

	err = sub.Run(context.Background(), &recordingEmitter{failAt: 2})
	assert.EqualError(t, err, "client went away")
	assert.Equal(t, 0, session.Summary().Subscribers)

	// Closing again is a no-op
	sub.Close()
	assert.Equal(t, 0, session.Summary().Subscribers)
}

func TestSubscription_Overflow(t *testing.T) {
	mgr, _ := newTestTerminals(t)
	endpoint := NewEndpoint(mgr, Config{Heartbeat: time.Hour, QueueSize: 2}, zap.NewNop(), nil)

	session, err := mgr.Create("ws-1", "")
	require.NoError(t, err)
	sub, err := endpoint.Open(session.ID, "test")
	require.NoError(t, err)

	// Nobody is draining yet, so the third event overflows the queue
	for i := 0; i < 3; i++ {
		require.NoError(t, mgr.WriteInput(session.ID, ":\n"))
	}
	require.True(t, sub.sink.Overflowed())

	err = sub.Run(context.Background(), &recordingEmitter{})
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, 0, session.Summary().Subscribers)

	// Other viewers are unaffected and a reconnect gets the replay
	again, err := endpoint.Open(session.ID, "test")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(again.replay), 4)
	again.Close()
}

func TestSubscription_ReadyCarriesTraceID(t *testing.T) {
	mgr, _ := newTestTerminals(t)
	endpoint := NewEndpoint(mgr, Config{Heartbeat: time.Hour}, nil, nil)

	session, err := mgr.Create("ws-1", "")
	require.NoError(t, err)
	sub, err := endpoint.Open(session.ID, "test")
	require.NoError(t, err)

	tracer := tracing.New("test", nil)
	defer tracer.Close()
	span, ctx := tracer.StartSpan(context.Background(), "GET /stream")
	ctx, cancel := context.WithCancel(ctx)

	emitter := &recordingEmitter{}
	done := runAsync(ctx, sub, emitter)
	require.Eventually(t, func() bool { return len(emitter.snapshot()) >= 1 }, 5*time.Second, 10*time.Millisecond)

	ready, ok := emitter.snapshot()[0].Data.(Ready)
	require.True(t, ok)
	assert.Equal(t, string(span.TraceID), ready.TraceID)

	cancel()
	assert.NoError(t, waitResult(t, done))
}
