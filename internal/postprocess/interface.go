package postprocess

import (
	"context"

	"github.com/nguyentantai21042004/announce-flow/internal/events"
)

// Processor turns finished sessions into summaries and archive uploads
type Processor interface {
	// HandleEvent is subscribed to the lifecycle bus
	HandleEvent(ctx context.Context, e events.Event)
	// Run drives the summary and upload queues until ctx is cancelled
	Run(ctx context.Context) error
}
