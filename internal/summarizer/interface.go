package summarizer

import "context"

// Summarizer condenses one session's transcript with an LLM.
// An empty result means no summary was produced.
type Summarizer interface {
	Summarize(ctx context.Context, streamID, transcript string) (string, error)
}
