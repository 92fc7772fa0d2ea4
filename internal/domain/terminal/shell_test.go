package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func envWith(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestShellResolver(t *testing.T) {
	tests := []struct {
		name     string
		resolver ShellResolver
		wantCmd  string
		wantArgs []string
	}{
		{
			name:     "configured shell with args",
			resolver: ShellResolver{DefaultShell: "/bin/zsh -l", GOOS: "linux", Getenv: envWith(map[string]string{"SHELL": "/bin/fish"})},
			wantCmd:  "/bin/zsh",
			wantArgs: []string{"-l"},
		},
		{
			name:     "SHELL environment variable",
			resolver: ShellResolver{GOOS: "linux", Getenv: envWith(map[string]string{"SHELL": "/usr/bin/fish"})},
			wantCmd:  "/usr/bin/fish",
			wantArgs: nil,
		},
		{
			name:     "blank configuration falls through",
			resolver: ShellResolver{DefaultShell: "   ", GOOS: "darwin", Getenv: envWith(map[string]string{"SHELL": "/bin/zsh"})},
			wantCmd:  "/bin/zsh",
			wantArgs: nil,
		},
		{
			name:     "unix fallback",
			resolver: ShellResolver{GOOS: "linux", Getenv: envWith(nil)},
			wantCmd:  "/bin/bash",
			wantArgs: nil,
		},
		{
			name:     "windows fallback ignores SHELL",
			resolver: ShellResolver{GOOS: "windows", Getenv: envWith(map[string]string{"SHELL": "/bin/bash"})},
			wantCmd:  "powershell.exe",
			wantArgs: []string{"-NoLogo"},
		},
		{
			name:     "windows configured shell",
			resolver: ShellResolver{DefaultShell: "cmd.exe", GOOS: "windows"},
			wantCmd:  "cmd.exe",
			wantArgs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := tt.resolver.Resolve()
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
