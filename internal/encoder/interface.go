package encoder

import (
	"context"
	"io"
)

// Encoder compresses a session's raw audio into a recording file
type Encoder interface {
	// Encode consumes pcm until EOF and returns the recording path.
	// The file is complete only once Encode returns without error.
	Encode(ctx context.Context, id string, pcm io.Reader) (string, error)
	// Path returns where the recording for id is written
	Path(id string) string
}
