package terminal

import (
	"errors"
	"fmt"

	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal/process"
)

var (
	// ErrDisabled is returned for every operation while the feature flag is off
	ErrDisabled = errors.New("interactive terminal is disabled")
	// ErrValidation wraps malformed or missing input
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is the root of every lookup failure
	ErrNotFound = errors.New("not found")
	// ErrWorkspaceNotFound is returned when a workspace session id is unknown
	ErrWorkspaceNotFound = fmt.Errorf("workspace session %w", ErrNotFound)
	// ErrTerminalNotFound is returned when a terminal id is unknown
	ErrTerminalNotFound = fmt.Errorf("terminal session %w", ErrNotFound)
	// ErrSessionClosed is returned for input to a session whose shell has exited
	ErrSessionClosed = errors.New("terminal session is closed")
	// ErrSpawn is returned when the shell cannot be launched
	ErrSpawn = process.ErrSpawn
)

func validationError(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
