package catalog

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/announce-flow/internal/events"
)

// Catalog indexes every session and its latest state
type Catalog interface {
	// HandleEvent is subscribed to the lifecycle bus
	HandleEvent(ctx context.Context, e events.Event)
	// Recent returns up to limit listable sessions, newest first, skipping exclude
	Recent(ctx context.Context, limit int, exclude string) ([]Entry, error)
	// Get returns one session or nil when it is unknown
	Get(ctx context.Context, id string) (*Entry, error)
	Close() error
}

type State string

const (
	StateRecording   State = "recording"
	StateFinished    State = "finished"
	StateDiscarded   State = "discarded"
	StateAborted     State = "aborted"
	StateSummarizing State = "summarizing"
	StateSummarized  State = "summarized"
	StatePublished   State = "published"
)

// Listable reports whether a session in this state has a finished recording
func (s State) Listable() bool {
	switch s {
	case StateFinished, StateSummarizing, StateSummarized, StatePublished:
		return true
	}
	return false
}

type Entry struct {
	ID            string    `json:"id"`
	State         State     `json:"state"`
	ContentLength int       `json:"contentLength"`
	Summary       string    `json:"summary,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
