package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// maxStderr bounds how much stderr a long-running process keeps for error reports
const maxStderr = 4096

type implExecutor struct{}

// New creates a new Executor instance
func New() Executor {
	return &implExecutor{}
}

// Execute runs an external command with the given arguments
func (e *implExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", commandError(name, err, stderr.String())
	}

	return stdout.String(), nil
}

// Start launches the command without waiting for it
func (e *implExecutor) Start(ctx context.Context, c Command) (Process, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdin = c.Stdin

	p := &implProcess{name: c.Name, cmd: cmd}
	cmd.Stderr = &p.stderr

	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	} else {
		out, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("stdout pipe for '%s': %w", c.Name, err)
		}
		p.stdout = out
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start '%s': %w", c.Name, err)
	}
	return p, nil
}

type implProcess struct {
	name   string
	cmd    *exec.Cmd
	stdout io.Reader
	stderr tailBuffer
}

func (p *implProcess) Stdout() io.Reader {
	return p.stdout
}

func (p *implProcess) Wait() error {
	if err := p.cmd.Wait(); err != nil {
		return commandError(p.name, err, p.stderr.String())
	}
	return nil
}

func commandError(name string, err error, stderr string) error {
	// Include stderr in error message for debugging
	stderr = strings.TrimSpace(stderr)
	if stderr != "" {
		return fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderr)
	}
	return fmt.Errorf("command '%s' failed: %w", name, err)
}

// tailBuffer keeps the last maxStderr bytes written to it
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - maxStderr; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
