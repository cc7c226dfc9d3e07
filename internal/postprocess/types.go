package postprocess

import "github.com/nguyentantai21042004/announce-flow/internal/transcription"

// SummaryJob asks for a summary of one finished session
type SummaryJob struct {
	StreamID   string
	Segments   []transcription.Segment
	Transcript string
	AudioPath  string
}

// UploadJob publishes one summarized session to the archive
type UploadJob struct {
	StreamID   string
	Summary    string
	Transcript string
	Audio      []byte
}
