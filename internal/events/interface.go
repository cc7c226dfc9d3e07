package events

import "context"

// Handler receives events for one subscriber, in publish order
type Handler func(ctx context.Context, e Event)

// Bus distributes session lifecycle events to independent subscribers
type Bus interface {
	// Publish never blocks on subscribers
	Publish(e Event)
	// Subscribe registers h under name and returns a function that removes it
	Subscribe(name string, h Handler) (unsubscribe func())
	// Close stops accepting events and waits until every subscriber has
	// drained its queue
	Close()
}
