package queue

import (
	"sync"

	"github.com/nguyentantai21042004/announce-flow/internal/logger"
)

// Options configures a Queue
type Options struct {
	Name        string
	MaxAttempts int
}

type entry[T any] struct {
	job      T
	attempts int
}

type implQueue[T any] struct {
	opts    Options
	handler Handler[T]
	logger  logger.Logger
	notify  chan struct{}

	mu      sync.Mutex
	pending []entry[T]
}

// New creates a Queue. MaxAttempts below 1 means a single attempt.
func New[T any](opts Options, handler Handler[T], log logger.Logger) Queue[T] {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &implQueue[T]{
		opts:    opts,
		handler: handler,
		logger:  log,
		notify:  make(chan struct{}, 1),
	}
}
