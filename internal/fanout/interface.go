package fanout

import (
	"context"
	"net/http"

	"github.com/nguyentantai21042004/announce-flow/internal/events"
)

// Hub relays public lifecycle events to live websocket viewers
type Hub interface {
	http.Handler
	// HandleEvent is subscribed to the lifecycle bus
	HandleEvent(ctx context.Context, e events.Event)
	// Count reports open connections
	Count() int
	// Close disconnects every viewer
	Close()
}
