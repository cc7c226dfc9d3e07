package transcription

import "errors"

// ErrAttemptsExhausted is reported when every retry of a session failed
var ErrAttemptsExhausted = errors.New("transcription attempts exhausted")

// DefaultMaxAttempts bounds the sessions opened for one recording
const DefaultMaxAttempts = 3

// Segment is one recognized span. Times are milliseconds since session start.
type Segment struct {
	Partial   bool   `json:"partial"`
	Content   string `json:"content"`
	StartTime *int64 `json:"startTime,omitempty"`
	EndTime   *int64 `json:"endTime,omitempty"`
}

// Millis returns a pointer to ms, for building timed segments
func Millis(ms int64) *int64 {
	return &ms
}
