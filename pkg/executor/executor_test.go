package executor

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestExecute(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{
			name: "stdout is returned",
			args: []string{"-c", "printf hello"},
			want: "hello",
		},
		{
			name:    "stderr is attached to the error",
			args:    []string{"-c", "echo boom >&2; exit 3"},
			wantErr: "boom",
		},
	}

	exec := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := exec.Execute(context.Background(), "sh", tt.args...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Execute() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Execute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStartPipesStdout(t *testing.T) {
	p, err := New().Start(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "printf abc"},
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	out, err := io.ReadAll(p.Stdout())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(out) != "abc" {
		t.Errorf("stdout = %q, want abc", out)
	}
	if err := p.Wait(); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestStartWithStdinAndStdout(t *testing.T) {
	var out bytes.Buffer
	p, err := New().Start(context.Background(), Command{
		Name:   "cat",
		Stdin:  strings.NewReader("passthrough"),
		Stdout: &out,
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if p.Stdout() != nil {
		t.Error("Stdout() should be nil when a writer is supplied")
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if out.String() != "passthrough" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestStartNonZeroExit(t *testing.T) {
	p, err := New().Start(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo device busy >&2; exit 2"},
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	_, _ = io.ReadAll(p.Stdout())

	err = p.Wait()
	if err == nil || !strings.Contains(err.Error(), "device busy") {
		t.Errorf("Wait() error = %v, want stderr tail", err)
	}
}

func TestTailBuffer(t *testing.T) {
	var b tailBuffer
	b.Write(bytes.Repeat([]byte("a"), maxStderr))
	b.Write([]byte("end"))

	got := b.String()
	if len(got) != maxStderr {
		t.Errorf("len = %d, want %d", len(got), maxStderr)
	}
	if !strings.HasSuffix(got, "end") {
		t.Errorf("tail lost: %q", got[len(got)-10:])
	}
}
