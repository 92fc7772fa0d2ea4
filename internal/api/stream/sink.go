package stream

import (
	"errors"
	"sync"

	"github.com/junedali-patel/codemind1/backend/internal/shared/types"
)

var (
	// ErrOverflow is returned when a subscriber falls too far behind
	ErrOverflow = errors.New("subscriber queue overflow")
	// ErrSinkClosed is returned for writes after Close
	ErrSinkClosed = errors.New("subscriber closed")
)

// QueueSink buffers events for one connection so the broadcaster never
// waits on the network. It holds at most limit undelivered events; the
// write that would exceed it closes the sink, and the owning Subscription
// then ends with ErrOverflow and detaches. The viewer is disconnected and
// must reconnect to resume from the replay window.
type QueueSink struct {
	mu         sync.Mutex
	pending    []types.TerminalEvent
	limit      int
	closed     bool
	overflowed bool

	notify chan struct{}
	done   chan struct{}
}

// NewQueueSink creates a sink holding at most limit pending events
func NewQueueSink(limit int) *QueueSink {
	if limit <= 0 {
		limit = 1
	}
	return &QueueSink{
		limit:  limit,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Write queues event without blocking
func (s *QueueSink) Write(event types.TerminalEvent) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSinkClosed
	}
	if len(s.pending) >= s.limit {
		s.overflowed = true
		s.closeLocked()
		s.mu.Unlock()
		return ErrOverflow
	}
	s.pending = append(s.pending, event)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

// Close stops accepting events. Already queued events remain drainable.
func (s *QueueSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	return nil
}

func (s *QueueSink) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

// Drain removes and returns every queued event
func (s *QueueSink) Drain() []types.TerminalEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.pending
	s.pending = nil
	return events
}

// Notify receives a value after new events are queued
func (s *QueueSink) Notify() <-chan struct{} {
	return s.notify
}

// Done is closed once the sink stops accepting events
func (s *QueueSink) Done() <-chan struct{} {
	return s.done
}

// Overflowed reports whether the sink was failed for falling behind
func (s *QueueSink) Overflowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overflowed
}
