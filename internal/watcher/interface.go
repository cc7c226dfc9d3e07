package watcher

import "context"

// Watcher reports changes to a fixed set of files
type Watcher interface {
	// Start blocks until ctx is cancelled, calling the handler after each
	// write to a watched file
	Start(ctx context.Context) error
	// Files returns the absolute paths being watched
	Files() []string
	Stop() error
}

// ChangeHandler receives the absolute path of a changed file
type ChangeHandler func(ctx context.Context, path string) error
