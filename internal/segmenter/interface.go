package segmenter

import (
	"context"
	"io"
	"time"
)

// Segmenter yields one capture per announcement
type Segmenter interface {
	// Next blocks until the silence gate opens and returns the live capture.
	// Processes that exit cleanly before producing audio are respawned.
	Next(ctx context.Context) (*Capture, error)
}

// Capture is a single announcement being recorded
type Capture struct {
	ID        string
	StartedAt time.Time
	// Audio is raw 16-bit little-endian mono PCM, ending with the announcement
	Audio io.Reader
	// Wait reports how the recorder exited. Call it after Audio is drained.
	Wait func() error
}
