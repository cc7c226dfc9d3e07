package webpush

import (
	"context"
	"encoding/json"

	"github.com/nguyentantai21042004/announce-flow/internal/events"
)

const (
	startedBody = "放送が始まりました"
	endedBody   = "放送が終わりました"
)

// Notifier turns lifecycle events into push broadcasts
type Notifier struct {
	registry      *Registry
	notifyOnStart bool
}

// NewNotifier creates a Notifier. streamStarted pushes are sent only when notifyOnStart is set.
func NewNotifier(registry *Registry, notifyOnStart bool) *Notifier {
	return &Notifier{registry: registry, notifyOnStart: notifyOnStart}
}

// HandleEvent is subscribed to the lifecycle bus
func (n *Notifier) HandleEvent(ctx context.Context, e events.Event) {
	payload, ok := n.payload(e)
	if !ok {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		n.registry.logger.Error(ctx, "Marshal push payload: %v", err)
		return
	}
	if _, err := n.registry.Broadcast(ctx, raw); err != nil {
		n.registry.logger.Error(ctx, "Push broadcast for %s: %v", payload.StreamID, err)
	}
}

func (n *Notifier) payload(e events.Event) (Payload, bool) {
	switch d := e.Data.(type) {
	case events.StreamStartedData:
		if !n.notifyOnStart {
			return Payload{}, false
		}
		return Payload{Type: string(events.StreamStarted), StreamID: d.StreamID, Body: startedBody}, true
	case events.StreamEndedData:
		if d.ContentLength == 0 {
			return Payload{}, false
		}
		return Payload{Type: string(events.StreamEnded), StreamID: d.StreamID, Body: endedBody}, true
	case events.SummaryData:
		return Payload{Type: string(events.Summary), StreamID: d.StreamID, Body: d.Summary}, true
	}
	return Payload{}, false
}
