package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
)

type implWatcher struct {
	targets       map[string]bool
	handler       ChangeHandler
	logger        logger.Logger
	watcher       *fsnotify.Watcher
	maxConcurrent int
	semaphore     chan struct{}
	settle        time.Duration
	wg            sync.WaitGroup
}

// Start collects write and create events on the watched files. A burst of
// events on one file is reported once, after settle has passed without
// further changes.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started for %d file(s)", len(w.targets))
	defer w.wg.Wait()

	pending := make(map[string]bool)
	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, ok := w.target(event.Name)
			if !ok {
				continue
			}
			w.logger.Debug(ctx, "Change detected: %s (%s)", abs, event.Op)
			pending[abs] = true
			timer.Reset(w.settle)

		case <-timer.C:
			for path := range pending {
				if err := w.dispatch(ctx, path); err != nil {
					return err
				}
			}
			clear(pending)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// dispatch runs the handler once a semaphore slot is free
func (w *implWatcher) dispatch(ctx context.Context, path string) error {
	select {
	case w.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.semaphore }()

		if err := w.handler(ctx, path); err != nil {
			w.logger.Error(ctx, "Failed to handle %s: %v", path, err)
		}
	}()
	return nil
}

func (w *implWatcher) Files() []string {
	files := make([]string, 0, len(w.targets))
	for f := range w.targets {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) target(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	return abs, w.targets[abs]
}
