package postprocess

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/announce-flow/internal/events"
	"github.com/nguyentantai21042004/announce-flow/internal/publisher"
	"github.com/nguyentantai21042004/announce-flow/internal/transcription"
	"golang.org/x/sync/errgroup"
)

func (p *implProcessor) HandleEvent(ctx context.Context, e events.Event) {
	if e.Type != events.StreamEnded {
		return
	}
	ended, ok := e.Data.(events.StreamEndedData)
	if !ok || ended.ContentLength == 0 {
		return
	}
	p.summaries.Push(SummaryJob{
		StreamID:   ended.StreamID,
		Segments:   ended.Segments,
		Transcript: joinFinals(ended.Segments),
		AudioPath:  ended.AudioPath,
	})
	p.logger.Debug(ctx, "Summary queued for %s (%d pending)", ended.StreamID, p.summaries.Len())
}

func (p *implProcessor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.summaries.Run(ctx) })
	g.Go(func() error { return p.uploads.Run(ctx) })
	return g.Wait()
}

// summarize runs one SummaryJob
func (p *implProcessor) summarize(ctx context.Context, job SummaryJob) error {
	startTime := time.Now()
	p.bus.Publish(events.Event{Type: events.Summarizing, Data: events.SummarizingData{StreamID: job.StreamID}})

	summary, err := p.summarizer.Summarize(ctx, job.StreamID, job.Transcript)
	if err != nil {
		return fmt.Errorf("summarize %s: %w", job.StreamID, err)
	}
	if summary == "" {
		p.logger.Info(ctx, "No summary produced for %s", job.StreamID)
		return nil
	}

	summaryPath := filepath.Join(p.opts.OutputDir, job.StreamID+".summary.txt")
	if err := os.WriteFile(summaryPath, []byte(summary), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	p.bus.Publish(events.Event{Type: events.Summary, Data: events.SummaryData{StreamID: job.StreamID, Summary: summary}})
	p.logger.Info(ctx, "Summary for %s written in %s", job.StreamID, time.Since(startTime).Round(time.Millisecond))

	if p.archive == nil {
		return nil
	}
	audio, err := os.ReadFile(job.AudioPath)
	if err != nil {
		p.logger.Error(ctx, "Skipping upload of %s: %v", job.StreamID, err)
		return nil
	}
	p.uploads.Push(UploadJob{
		StreamID:   job.StreamID,
		Summary:    summary,
		Transcript: job.Transcript,
		Audio:      audio,
	})
	return nil
}

// upload runs one UploadJob: recording first, then metadata
func (p *implProcessor) upload(ctx context.Context, job UploadJob) error {
	if err := p.archive.PutRecording(ctx, job.StreamID, job.Audio); err != nil {
		return err
	}
	if err := p.archive.PutTranscription(ctx, job.StreamID, publisher.Transcription{
		Summary:       job.Summary,
		Transcription: job.Transcript,
	}); err != nil {
		return err
	}

	p.logger.Info(ctx, "Published %s (%d bytes audio)", job.StreamID, len(job.Audio))
	p.bus.Publish(events.Event{Type: events.Published, Data: events.PublishedData{StreamID: job.StreamID}})
	return nil
}

func joinFinals(segs []transcription.Segment) string {
	lines := make([]string, 0, len(segs))
	for _, s := range segs {
		lines = append(lines, s.Content)
	}
	return strings.Join(lines, "\n")
}
