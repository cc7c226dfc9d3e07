package session

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/announce-flow/internal/audio"
	"github.com/nguyentantai21042004/announce-flow/internal/events"
	"golang.org/x/sync/errgroup"
)

// 1s of 16kHz 16-bit mono
const branchCapacity = 32000

func (o *implOrchestrator) Run(ctx context.Context) error {
	o.logger.Info(ctx, "Capture loop started (backend: %s)", o.backend.Name())
	for {
		err := o.runOnce(ctx)
		if ctx.Err() != nil {
			o.logger.Info(ctx, "Capture loop stopped")
			return ctx.Err()
		}
		if err == nil {
			continue
		}

		o.logger.Error(ctx, "Session failed, restarting in %s: %v", o.opts.RestartDelay, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.opts.RestartDelay):
		}
	}
}

func (o *implOrchestrator) Current() (string, bool) {
	if id := o.current.Load(); id != nil {
		return *id, true
	}
	return "", false
}

// runOnce records and transcribes a single session
func (o *implOrchestrator) runOnce(ctx context.Context) error {
	capture, err := o.segmenter.Next(ctx)
	if err != nil {
		return fmt.Errorf("wait for session: %w", err)
	}
	id := capture.ID
	o.current.Store(&id)
	defer o.current.Store(nil)

	o.logger.Info(ctx, "Session %s started", id)
	o.bus.Publish(events.Event{Type: events.StreamStarted, Data: events.StreamStartedData{StreamID: id}})

	encBranch := audio.NewBuffer(branchCapacity)
	sttBranch := audio.NewBuffer(branchCapacity)

	var (
		audioPath string
		result    transcriptResult
		g         errgroup.Group
	)
	g.Go(func() error {
		return audio.Tee(capture.Audio, encBranch, sttBranch)
	})
	g.Go(func() error {
		defer encBranch.Close()
		path, err := o.encoder.Encode(ctx, id, encBranch)
		audioPath = path
		return err
	})
	g.Go(func() error {
		defer sttBranch.Close()
		r, err := o.transcribe(ctx, id, sttBranch)
		result = r
		return err
	})

	joinErr := g.Wait()
	waitErr := capture.Wait()
	if joinErr == nil {
		joinErr = waitErr
	}
	if joinErr != nil {
		// Viewers only know the public events, so the session is closed for
		// them as an empty one before the abort is recorded.
		o.bus.Publish(events.Event{Type: events.StreamEnded, Data: events.StreamEndedData{StreamID: id}})
		o.bus.Publish(events.Event{Type: events.StreamAborted, Data: events.StreamAbortedData{StreamID: id, Reason: joinErr.Error()}})
		return fmt.Errorf("session %s: %w", id, joinErr)
	}

	o.logger.Info(ctx, "Session %s ended after %s (content length: %d, finals: %d)",
		id, time.Since(capture.StartedAt).Round(time.Second), result.contentLength, len(result.finals))
	o.bus.Publish(events.Event{Type: events.StreamEnded, Data: events.StreamEndedData{
		StreamID:      id,
		ContentLength: result.contentLength,
		Segments:      result.finals,
		AudioPath:     audioPath,
	}})
	return nil
}
