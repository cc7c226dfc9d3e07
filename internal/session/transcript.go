package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/nguyentantai21042004/announce-flow/internal/events"
	"github.com/nguyentantai21042004/announce-flow/internal/transcription"
)

type transcriptResult struct {
	finals        []transcription.Segment
	contentLength int
}

// merger applies the partial/final rules to a backend's raw output
type merger struct {
	timing      bool
	lastContent string
	lastEnd     int64
}

// accept returns the segment to emit, or false when it must be dropped
func (m *merger) accept(seg transcription.Segment) (transcription.Segment, bool) {
	if strings.TrimSpace(seg.Content) == "" {
		return seg, false
	}
	if seg.Partial && seg.Content == m.lastContent {
		return seg, false
	}
	m.lastContent = seg.Content

	if !m.timing {
		seg.StartTime, seg.EndTime = nil, nil
		return seg, true
	}
	if seg.Partial || seg.StartTime == nil || seg.EndTime == nil {
		return seg, true
	}

	// Finals never overlap the previous final
	start, end := *seg.StartTime, *seg.EndTime
	if start < m.lastEnd {
		start = m.lastEnd
	}
	if end < start {
		end = start
	}
	m.lastEnd = end
	seg.StartTime, seg.EndTime = transcription.Millis(start), transcription.Millis(end)
	return seg, true
}

// artifacts writes <id>.txt and <id>.json as finals arrive
type artifacts struct {
	txt  *os.File
	json *os.File
}

func openArtifacts(dir, id string) (*artifacts, error) {
	txt, err := os.Create(filepath.Join(dir, id+".txt"))
	if err != nil {
		return nil, fmt.Errorf("create transcript: %w", err)
	}
	js, err := os.Create(filepath.Join(dir, id+".json"))
	if err != nil {
		txt.Close()
		return nil, fmt.Errorf("create segments: %w", err)
	}
	return &artifacts{txt: txt, json: js}, nil
}

func (a *artifacts) append(seg transcription.Segment) error {
	if _, err := io.WriteString(a.txt, seg.Content+"\n"); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	line, err := json.Marshal(seg)
	if err != nil {
		return fmt.Errorf("marshal segment: %w", err)
	}
	if _, err := a.json.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write segments: %w", err)
	}
	return nil
}

func (a *artifacts) Close() error {
	terr := a.txt.Close()
	jerr := a.json.Close()
	if terr != nil {
		return terr
	}
	return jerr
}

func (o *implOrchestrator) transcribe(ctx context.Context, id string, pcm io.Reader) (transcriptResult, error) {
	var result transcriptResult

	files, err := openArtifacts(o.opts.OutputDir, id)
	if err != nil {
		return result, err
	}
	defer files.Close()

	m := &merger{timing: o.backend.Capabilities().Timing}
	for raw := range transcription.UntilDone(ctx, o.backend, pcm, transcription.RetryOptions{
		MaxAttempts: o.opts.MaxAttempts,
		SampleRate:  o.opts.SampleRate,
	}, o.logger) {
		seg, ok := m.accept(raw)
		if !ok {
			continue
		}
		if !seg.Partial {
			if err := files.append(seg); err != nil {
				return result, err
			}
			result.finals = append(result.finals, seg)
			result.contentLength += utf8.RuneCountInString(strings.TrimSpace(seg.Content))
		}
		o.bus.Publish(events.Event{Type: events.Transcript, Data: events.TranscriptData{StreamID: id, Item: seg}})
	}

	if err := files.Close(); err != nil {
		return result, fmt.Errorf("close artifacts: %w", err)
	}
	return result, nil
}
