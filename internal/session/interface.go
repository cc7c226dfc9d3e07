package session

import "context"

// Orchestrator drives the capture loop, one announcement at a time
type Orchestrator interface {
	// Run captures sessions until ctx is cancelled. Failed sessions are
	// logged and capture restarts after a delay.
	Run(ctx context.Context) error
	// Current returns the id of the session being recorded, if any
	Current() (string, bool)
}
