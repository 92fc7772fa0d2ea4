package terminal

import (
	"os"
	"runtime"
	"strings"
)

const (
	fallbackShell        = "/bin/bash"
	fallbackWindowsShell = "powershell.exe"
)

// ShellResolver picks the command used to start a terminal
type ShellResolver struct {
	// DefaultShell is the configured command line, e.g. "/bin/zsh -l"
	DefaultShell string
	GOOS         string
	Getenv       func(string) string
}

// NewShellResolver creates a resolver for the current platform
func NewShellResolver(defaultShell string) *ShellResolver {
	return &ShellResolver{
		DefaultShell: defaultShell,
		GOOS:         runtime.GOOS,
		Getenv:       os.Getenv,
	}
}

// Resolve returns the shell command and its arguments.
// The configured shell wins, then $SHELL, then a platform fallback.
func (r *ShellResolver) Resolve() (string, []string) {
	if fields := strings.Fields(r.DefaultShell); len(fields) > 0 {
		return fields[0], fields[1:]
	}

	if r.GOOS == "windows" {
		return fallbackWindowsShell, []string{"-NoLogo"}
	}

	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if shell := strings.TrimSpace(getenv("SHELL")); shell != "" {
		return shell, nil
	}

	return fallbackShell, nil
}
