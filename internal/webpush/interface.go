package webpush

import (
	"context"
	"errors"
)

// ErrGone marks a subscription the push service no longer accepts
var ErrGone = errors.New("push subscription gone")

// Sender delivers one notification to one subscription.
// It returns ErrGone when the endpoint is permanently invalid.
type Sender interface {
	Send(ctx context.Context, sub Subscription, payload []byte) error
}

// Subscription is a browser push endpoint, as produced by PushManager.subscribe
type Subscription struct {
	Endpoint       string `json:"endpoint"`
	ExpirationTime *int64 `json:"expirationTime,omitempty"`
	Keys           Keys   `json:"keys"`
}

type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Payload is the JSON body shown by the service worker
type Payload struct {
	Type     string `json:"type"`
	StreamID string `json:"streamId"`
	Body     string `json:"body,omitempty"`
}
