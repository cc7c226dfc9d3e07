package session

import (
	"sync/atomic"
	"time"

	"github.com/nguyentantai21042004/announce-flow/internal/encoder"
	"github.com/nguyentantai21042004/announce-flow/internal/events"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
	"github.com/nguyentantai21042004/announce-flow/internal/segmenter"
	"github.com/nguyentantai21042004/announce-flow/internal/transcription"
)

// Options tunes the orchestrator
type Options struct {
	OutputDir    string
	MaxAttempts  int
	RestartDelay time.Duration
	// SampleRate of the captured PCM, used to keep segment times relative
	// to the recording across backend retries
	SampleRate int
}

type implOrchestrator struct {
	opts      Options
	segmenter segmenter.Segmenter
	encoder   encoder.Encoder
	backend   transcription.Backend
	bus       events.Bus
	logger    logger.Logger

	current atomic.Pointer[string]
}

// New creates an Orchestrator
func New(opts Options, seg segmenter.Segmenter, enc encoder.Encoder, backend transcription.Backend, bus events.Bus, log logger.Logger) Orchestrator {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = transcription.DefaultMaxAttempts
	}
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = time.Second
	}
	return &implOrchestrator{
		opts:      opts,
		segmenter: seg,
		encoder:   enc,
		backend:   backend,
		bus:       bus,
		logger:    log,
	}
}
