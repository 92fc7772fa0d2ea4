package broadcast

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/junedali-patel/codemind1/backend/internal/shared/types"
)

const (
	// DefaultCapacity is the number of events retained per terminal
	DefaultCapacity = 1000
	// DefaultReplaySize is the number of events replayed to a new subscriber
	DefaultReplaySize = 200
)

// ErrClosed is returned when attaching to a broadcaster that has been closed
var ErrClosed = errors.New("broadcaster is closed")

// Sink receives events from a broadcaster. Implementations must be
// comparable (typically a pointer) and Write must not block.
//
// A Write error is logged and the sink stays attached; the broadcaster never
// removes a subscriber on its own. A sink that cannot keep up is expected to
// close itself so its owner detaches it and ends the viewer's stream, which
// is what stream.QueueSink does on overflow: that viewer is disconnected
// while other viewers and the session carry on.
type Sink interface {
	Write(event types.TerminalEvent) error
	Close() error
}

// Options configures a broadcaster
type Options struct {
	Capacity   int
	ReplaySize int
	Logger     *zap.Logger
}

// Broadcaster is a per-terminal event log with live fan-out
type Broadcaster struct {
	mu          sync.Mutex
	ring        []types.TerminalEvent
	head        int // index of the oldest event
	size        int
	replaySize  int
	subscribers []Sink
	closed      bool
	logger      *zap.Logger
}

// New creates a broadcaster, applying defaults for unset options
func New(opts Options) *Broadcaster {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.ReplaySize <= 0 {
		opts.ReplaySize = DefaultReplaySize
	}
	if opts.ReplaySize > opts.Capacity {
		opts.ReplaySize = opts.Capacity
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Broadcaster{
		ring:       make([]types.TerminalEvent, opts.Capacity),
		replaySize: opts.ReplaySize,
		logger:     opts.Logger,
	}
}

// Append records event, evicting the oldest entry when full, then delivers
// it to every current subscriber
func (b *Broadcaster) Append(event types.TerminalEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.ring)
	if b.size < capacity {
		b.ring[(b.head+b.size)%capacity] = event
		b.size++
	} else {
		b.ring[b.head] = event
		b.head = (b.head + 1) % capacity
	}

	for _, sink := range b.subscribers {
		if err := sink.Write(event); err != nil {
			b.logger.Debug("Dropped event for subscriber",
				zap.String("type", string(event.Type)),
				zap.Error(err),
			)
		}
	}
}

// Attach registers sink and returns the replay window: the most recent
// min(ReplaySize, Len()) events in original order. Every event appended
// after Attach returns is delivered to sink live.
func (b *Broadcaster) Attach(sink Sink) ([]types.TerminalEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	for _, existing := range b.subscribers {
		if existing == sink {
			return b.tail(b.replaySize), nil
		}
	}
	b.subscribers = append(b.subscribers, sink)

	return b.tail(b.replaySize), nil
}

// Detach removes sink. It reports whether sink was attached.
func (b *Broadcaster) Detach(sink Sink) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, existing := range b.subscribers {
		if existing == sink {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return true
		}
	}
	return false
}

// Close detaches and closes every subscriber. Further attaches fail with
// ErrClosed; appends are still recorded but reach nobody.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	sinks := b.subscribers
	b.subscribers = nil
	b.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			b.logger.Debug("Failed to close subscriber", zap.Error(err))
		}
	}
}

// Len returns the number of buffered events
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// SubscriberCount returns the number of attached sinks
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Events returns a copy of the whole buffer, oldest first
func (b *Broadcaster) Events() []types.TerminalEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tail(b.size)
}

// tail copies the newest n events in order. Caller holds mu.
func (b *Broadcaster) tail(n int) []types.TerminalEvent {
	if n > b.size {
		n = b.size
	}
	out := make([]types.TerminalEvent, n)
	capacity := len(b.ring)
	start := b.head + b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.ring[(start+i)%capacity]
	}
	return out
}
