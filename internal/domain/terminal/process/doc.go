// Package process spawns and supervises one shell process per terminal.
//
// A Process is created in two phases. New resolves the executable, checks
// the working directory and wires stdio pipes; any failure there is a
// spawn failure returned to the caller. Start launches the child and turns
// everything that happens afterwards (output chunks, exit, runtime errors)
// into Handlers callbacks, so the owner can register the terminal before
// the first byte of output arrives.
//
// No pseudo-terminal is allocated: stdin, stdout and stderr are plain pipes.
// Exit is reported only after both output streams are drained, so an exit
// notification is always the last callback for a process.
package process
