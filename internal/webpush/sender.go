package webpush

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	webpushgo "github.com/SherClockHolmes/webpush-go"
)

const notificationTTL = 60 * 60

type vapidSender struct {
	keys    VAPIDKeys
	subject string
	client  webpushgo.HTTPClient
}

// NewSender creates a Sender that signs notifications with VAPID keys
func NewSender(keys VAPIDKeys, subject string, client webpushgo.HTTPClient) Sender {
	return &vapidSender{keys: keys, subject: subject, client: client}
}

func (s *vapidSender) Send(ctx context.Context, sub Subscription, payload []byte) error {
	resp, err := webpushgo.SendNotificationWithContext(ctx, payload, &webpushgo.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpushgo.Keys{
			Auth:   sub.Keys.Auth,
			P256dh: sub.Keys.P256dh,
		},
	}, &webpushgo.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.keys.PublicKey,
		VAPIDPrivateKey: s.keys.PrivateKey,
		TTL:             notificationTTL,
	})
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return statusError(resp.StatusCode)
}

func statusError(status int) error {
	switch {
	case status == http.StatusGone || status == http.StatusNotFound:
		return fmt.Errorf("status %d: %w", status, ErrGone)
	case status >= 400:
		return fmt.Errorf("push service returned status %d", status)
	}
	return nil
}

func isGone(err error) bool {
	return errors.Is(err, ErrGone)
}
