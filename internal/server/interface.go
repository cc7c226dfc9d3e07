package server

import (
	"context"
	"net/http"
)

// Server exposes the live feed, push registration and the session listing
type Server interface {
	Handler() http.Handler
	// Run serves until ctx is cancelled, then shuts down gracefully
	Run(ctx context.Context) error
}
