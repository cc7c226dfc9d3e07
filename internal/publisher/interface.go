package publisher

import "context"

// Archive is the remote store sessions are published to
type Archive interface {
	// PutRecording uploads the encoded audio of a session
	PutRecording(ctx context.Context, id string, audio []byte) error
	// PutTranscription uploads the session metadata. Called after PutRecording succeeded.
	PutTranscription(ctx context.Context, id string, t Transcription) error
}

// Transcription is the metadata stored next to a recording
type Transcription struct {
	Summary       string `json:"summary"`
	Transcription string `json:"transcription"`
}
