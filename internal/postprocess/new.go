package postprocess

import (
	"github.com/nguyentantai21042004/announce-flow/internal/events"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
	"github.com/nguyentantai21042004/announce-flow/internal/publisher"
	"github.com/nguyentantai21042004/announce-flow/internal/queue"
	"github.com/nguyentantai21042004/announce-flow/internal/summarizer"
)

// Options tunes post-processing
type Options struct {
	OutputDir       string
	SummaryAttempts int
	UploadAttempts  int
}

type implProcessor struct {
	opts       Options
	summarizer summarizer.Summarizer
	archive    publisher.Archive
	bus        events.Bus
	logger     logger.Logger

	summaries queue.Queue[SummaryJob]
	uploads   queue.Queue[UploadJob]
}

// New creates a Processor. A nil archive disables uploads.
func New(opts Options, summ summarizer.Summarizer, archive publisher.Archive, bus events.Bus, log logger.Logger) Processor {
	p := &implProcessor{
		opts:       opts,
		summarizer: summ,
		archive:    archive,
		bus:        bus,
		logger:     log,
	}
	p.summaries = queue.New[SummaryJob](queue.Options{Name: "summarizer", MaxAttempts: opts.SummaryAttempts}, p.summarize, log)
	p.uploads = queue.New[UploadJob](queue.Options{Name: "publisher", MaxAttempts: opts.UploadAttempts}, p.upload, log)
	return p
}
