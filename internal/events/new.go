package events

import (
	"context"
	"sync"

	"github.com/nguyentantai21042004/announce-flow/internal/logger"
)

type implBus struct {
	ctx    context.Context
	logger logger.Logger

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	closed bool
	wg     sync.WaitGroup
}

// New creates a Bus. ctx is handed to handlers.
func New(ctx context.Context, log logger.Logger) Bus {
	return &implBus{
		ctx:    ctx,
		logger: log,
		subs:   make(map[int]*subscriber),
	}
}
