package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyentantai21042004/announce-flow/internal/logger"
)

func TestWatcherReportsTargetChanges(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "summarize-prompt.txt")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(target, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 10)
	w, err := New([]string{target}, func(_ context.Context, path string) error {
		changed <- path
		return nil
	}, logger.Nop(), 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w.(*implWatcher).settle = 0
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	if err := os.WriteFile(other, []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-changed:
		if filepath.Base(path) != "summarize-prompt.txt" {
			t.Errorf("handler got %s", path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing", "prompt.txt")}, nil, logger.Nop(), 1)
	if err == nil {
		t.Error("New() should fail when the directory does not exist")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(target, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w, err := New([]string{target}, func(context.Context, string) error {
		calls.Add(1)
		return nil
	}, logger.Nop(), 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()

	if files := w.Files(); len(files) != 1 || files[0] != target {
		t.Errorf("Files() = %v, want [%s]", files, target)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	for _, v := range []string{"v2", "v3", "v4"} {
		if err := os.WriteFile(target, []byte(v), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(time.Second)
	cancel()
	<-done

	if got := calls.Load(); got != 1 {
		t.Errorf("handler called %d times, want 1", got)
	}
}
