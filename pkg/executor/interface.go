package executor

import (
	"context"
	"io"
)

// Executor runs external commands
type Executor interface {
	// Execute runs a command to completion and returns its stdout
	Execute(ctx context.Context, name string, args ...string) (string, error)
	// Start launches a long-running command and returns a handle to it
	Start(ctx context.Context, cmd Command) (Process, error)
}

// Command describes a process to start.
// When Stdout is nil the process exposes its output through Process.Stdout.
type Command struct {
	Name   string
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
}

// Process is a started command
type Process interface {
	// Stdout is the read side of the output pipe, nil when Command.Stdout was set.
	// All reads must finish before Wait is called.
	Stdout() io.Reader
	// Wait blocks until the process exits. A non-zero exit is returned as an
	// error carrying the tail of stderr.
	Wait() error
}
