// Package id provides centralized ID generation for the backend.
//
// Terminal, workspace and request identifiers are prefixed ULIDs:
//   - Lexicographic sortability: creation order is visible in logs and listings
//   - Prefixed types: term_*, ws_*, req_* make ids self-describing
//   - Type safety: separate types prevent passing a workspace id where a terminal id belongs
//
// Stream connections are short-lived and never sorted, so they use random UUIDs.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// TerminalID identifies a terminal session
type TerminalID string

// WorkspaceID identifies a workspace session
type WorkspaceID string

// RequestID identifies an API request or trace span
type RequestID string

// ConnectionID identifies one open stream connection
type ConnectionID string

// ============================================================================
// ID Prefixes (for debugging and type identification)
// ============================================================================

const (
	TerminalPrefix  = "term"
	WorkspacePrefix = "ws"
	RequestPrefix   = "req"
)

// ============================================================================
// ULID Generator (Primary)
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewTerminalID generates a new terminal session ID
func NewTerminalID() TerminalID {
	return TerminalID(Default().GenerateWithPrefix(TerminalPrefix))
}

// NewWorkspaceID generates a new workspace session ID
func NewWorkspaceID() WorkspaceID {
	return WorkspaceID(Default().GenerateWithPrefix(WorkspacePrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewConnectionID generates a random stream connection ID
func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.NewString())
}

// ============================================================================
// Conversion and Validation
// ============================================================================

func (id TerminalID) String() string   { return string(id) }
func (id WorkspaceID) String() string  { return string(id) }
func (id RequestID) String() string    { return string(id) }
func (id ConnectionID) String() string { return string(id) }

// HasPrefix reports whether id is a well-formed prefixed ULID with the given prefix
func HasPrefix(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"_")
	if !ok {
		return false
	}
	_, err := ulid.ParseStrict(rest)
	return err == nil
}
