package events

import "github.com/nguyentantai21042004/announce-flow/internal/transcription"

type Type string

const (
	StreamStarted Type = "streamStarted"
	Transcript    Type = "transcript"
	StreamEnded   Type = "streamEnded"
	Summary       Type = "summary"

	// Internal lifecycle events, never sent to viewers.
	StreamAborted Type = "streamAborted"
	Summarizing   Type = "summarizing"
	Published     Type = "published"
)

// Public reports whether viewers may receive events of this type
func (t Type) Public() bool {
	switch t {
	case StreamStarted, Transcript, StreamEnded, Summary:
		return true
	}
	return false
}

// Event is the {type, data} envelope used on every wire
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

type StreamStartedData struct {
	StreamID string `json:"streamId"`
}

type TranscriptData struct {
	StreamID string                `json:"streamId"`
	Item     transcription.Segment `json:"item"`
}

// StreamEndedData carries the finished session. Segments and AudioPath are
// for in-process consumers only.
type StreamEndedData struct {
	StreamID      string                  `json:"streamId"`
	ContentLength int                     `json:"contentLength"`
	Segments      []transcription.Segment `json:"-"`
	AudioPath     string                  `json:"-"`
}

type SummaryData struct {
	StreamID string `json:"streamId"`
	Summary  string `json:"summary"`
}

type StreamAbortedData struct {
	StreamID string `json:"streamId"`
	Reason   string `json:"reason"`
}

type SummarizingData struct {
	StreamID string `json:"streamId"`
}

type PublishedData struct {
	StreamID string `json:"streamId"`
}

// StreamID extracts the session id from any payload defined in this package
func (e Event) StreamID() string {
	switch d := e.Data.(type) {
	case StreamStartedData:
		return d.StreamID
	case TranscriptData:
		return d.StreamID
	case StreamEndedData:
		return d.StreamID
	case SummaryData:
		return d.StreamID
	case StreamAbortedData:
		return d.StreamID
	case SummarizingData:
		return d.StreamID
	case PublishedData:
		return d.StreamID
	}
	return ""
}
