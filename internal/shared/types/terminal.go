package types

import "time"

// EventType classifies a terminal event
type EventType string

const (
	EventStdout    EventType = "stdout"
	EventStderr    EventType = "stderr"
	EventStdin     EventType = "stdin"
	EventSystem    EventType = "system"
	EventError     EventType = "error"
	EventExit      EventType = "exit"
	EventHeartbeat EventType = "heartbeat"
)

// TimestampLayout is the ISO-8601 layout used on the wire (millisecond precision, UTC)
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// TerminalEvent is one entry of a terminal's event log
type TerminalEvent struct {
	Type      EventType `json:"type"`
	Data      string    `json:"data"`
	Timestamp string    `json:"timestamp"`
}

// NewTerminalEvent stamps an event with the current time
func NewTerminalEvent(eventType EventType, data string) TerminalEvent {
	return TerminalEvent{
		Type:      eventType,
		Data:      data,
		Timestamp: FormatTimestamp(time.Now()),
	}
}

// FormatTimestamp renders t the way stream payloads carry it
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// TerminalSummary is the metadata-only view of a terminal session
type TerminalSummary struct {
	TerminalID         string    `json:"terminalId"`
	WorkspaceSessionID string    `json:"workspaceSessionId"`
	Name               string    `json:"name"`
	Shell              string    `json:"shell"`
	Cwd                string    `json:"cwd"`
	Cols               int       `json:"cols"`
	Rows               int       `json:"rows"`
	IsClosed           bool      `json:"isClosed"`
	ExitCode           *int      `json:"exitCode,omitempty"`
	Subscribers        int       `json:"subscribers"`
	CreatedAt          time.Time `json:"createdAt"`
	LastAccessedAt     time.Time `json:"lastAccessedAt"`
}

// Workspace is a workspace session as seen by the terminal subsystem
type Workspace struct {
	ID       string `json:"id" yaml:"id" toml:"id"`
	RootPath string `json:"rootPath" yaml:"root_path" toml:"root_path"`
}
