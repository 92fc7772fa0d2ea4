package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker refuses calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// Threshold is the number of consecutive failures that opens the breaker
	Threshold uint32
	// Cooldown is how long the breaker stays open before allowing a trial call
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes
	OnStateChange func(name string, from State, to State)
	// Now overrides the clock in tests
	Now func() time.Time
}

// Breaker stops calling an operation after repeated consecutive failures
// and lets a single trial call through once the cooldown has passed. A nil
// *Breaker allows every call.
type Breaker struct {
	name     string
	settings Settings

	mu       sync.Mutex
	state    State
	failures uint32
	openedAt time.Time
	probing  bool
}

// New creates a new circuit breaker with the given settings
func New(name string, settings Settings) *Breaker {
	if settings.Threshold == 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}

	return &Breaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
	}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	if b == nil {
		return StateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance()
	return b.state
}

// Failures returns the current run of consecutive failures
func (b *Breaker) Failures() uint32 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.failures
}

// Allow reserves a call. Every successful Allow must be paired with Record.
func (b *Breaker) Allow() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance()
	switch b.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

// Record reports the outcome of a call admitted by Allow
func (b *Breaker) Record(err error) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.probing = false
			b.setState(StateClosed)
		}
		return
	}

	b.failures++
	switch b.state {
	case StateHalfOpen:
		b.probing = false
		b.setState(StateOpen)
	case StateClosed:
		if b.failures >= b.settings.Threshold {
			b.setState(StateOpen)
		}
	}
}

// Do runs fn if the breaker admits it and records the result
func (b *Breaker) Do(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	b.Record(err)
	return err
}

// advance moves an expired open breaker to half-open
func (b *Breaker) advance() {
	if b.state == StateOpen && !b.settings.Now().Before(b.openedAt.Add(b.settings.Cooldown)) {
		b.setState(StateHalfOpen)
	}
}

// setState changes the state of the circuit breaker
func (b *Breaker) setState(state State) {
	if b.state == state {
		return
	}

	prev := b.state
	b.state = state

	switch state {
	case StateOpen:
		b.openedAt = b.settings.Now()
	case StateClosed:
		b.failures = 0
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}
