package webpush

import (
	"encoding/json"
	"io"
	"net/http"
)

const maxSubscriptionBody = 16 << 10

// KeyHandler serves the VAPID public key as text
func KeyHandler(keys VAPIDKeys) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, keys.PublicKey)
	}
}

// SubscribeHandler stores a posted subscription. Repeated posts are accepted.
func SubscribeHandler(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var sub Subscription
		if err := json.NewDecoder(io.LimitReader(r.Body, maxSubscriptionBody)).Decode(&sub); err != nil {
			http.Error(w, "invalid subscription", http.StatusBadRequest)
			return
		}
		if sub.Endpoint == "" {
			http.Error(w, "endpoint is required", http.StatusBadRequest)
			return
		}

		added, err := registry.Subscribe(sub)
		if err != nil {
			registry.logger.Error(r.Context(), "Store subscription: %v", err)
			http.Error(w, "could not store subscription", http.StatusInternalServerError)
			return
		}
		if added {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
