// Package types provides the data structures shared by the terminal
// domain and its transports.
//
// Core Types:
//   - TerminalEvent: one ordered entry in a terminal's event log
//   - EventType: stdout, stderr, stdin, system, exit or error
//   - TerminalSummary: the listing view of a session
//   - Workspace: a workspace session and its root directory
//
// Example Usage:
//
//	event := types.TerminalEvent{
//	    Type:      types.EventStdout,
//	    Data:      "hello\n",
//	    Timestamp: time.Now(),
//	}
package types
