package transcription

import (
	"context"
	"io"
	"iter"
)

// Backend is a streaming speech recognizer
type Backend interface {
	Name() string
	Capabilities() Capabilities
	// Transcribe opens one remote session and streams audio into it until
	// audio is exhausted. Segments are yielded in recognition order. A yielded
	// error means the session failed; the sequence ends after it.
	Transcribe(ctx context.Context, audio io.Reader) iter.Seq2[Segment, error]
}

// Capabilities describes what a backend reports beyond plain text
type Capabilities struct {
	// Timing is set when segments carry start and end offsets
	Timing bool
	// Interim is set when the backend emits partial hypotheses
	Interim bool
}
