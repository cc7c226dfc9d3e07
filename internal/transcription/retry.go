package transcription

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync/atomic"

	"github.com/nguyentantai21042004/announce-flow/internal/logger"
)

// bytesPerSample is fixed by the 16-bit mono PCM the recorder produces
const bytesPerSample = 2

// RetryOptions bounds UntilDone and describes the audio it reads
type RetryOptions struct {
	MaxAttempts int
	// SampleRate converts consumed audio into a time offset for segments
	// from a reopened session
	SampleRate int
}

// UntilDone transcribes audio to completion, opening a new backend session on
// the remaining audio each time one fails. After MaxAttempts failures the
// sequence ends; the caller sees a clean end and the failure is only logged.
//
// Backends time segments from the start of their own session. When the
// backend reports timing, segments from a reopened session are shifted by the
// duration of audio consumed before it, so times stay relative to the
// start of the recording.
func UntilDone(ctx context.Context, backend Backend, audio io.Reader, opts RetryOptions, log logger.Logger) iter.Seq[Segment] {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	timing := backend.Capabilities().Timing && opts.SampleRate > 0
	counted := &countingReader{r: audio}

	return func(yield func(Segment) bool) {
		for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
			var base int64
			if timing {
				base = counted.n.Load() * 1000 / int64(opts.SampleRate*bytesPerSample)
			}

			var failure error
			for seg, err := range backend.Transcribe(ctx, counted) {
				if err != nil {
					failure = err
					break
				}
				if base > 0 {
					seg = shift(seg, base)
				}
				if !yield(seg) {
					return
				}
			}
			if failure == nil {
				return
			}

			log.Warn(ctx, "%s session failed (attempt %d/%d): %v", backend.Name(), attempt, opts.MaxAttempts, failure)
			if ctx.Err() != nil {
				return
			}
		}

		err := fmt.Errorf("%s: %w", backend.Name(), ErrAttemptsExhausted)
		log.Error(ctx, "Giving up on transcription: %v", err)
	}
}

func shift(seg Segment, ms int64) Segment {
	if seg.StartTime != nil {
		seg.StartTime = Millis(*seg.StartTime + ms)
	}
	if seg.EndTime != nil {
		seg.EndTime = Millis(*seg.EndTime + ms)
	}
	return seg
}

// countingReader tracks bytes handed to backends. Backends read from their
// own goroutines, so the count is atomic.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
