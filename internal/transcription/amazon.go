package transcription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming/types"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
)

// 100ms of 16kHz 16-bit mono
const amazonChunkSize = 3200

// AmazonOptions configures the Transcribe Streaming backend
type AmazonOptions struct {
	Region       string
	LanguageCode string
	SampleRate   int
}

type amazonBackend struct {
	client *transcribestreaming.Client
	opts   AmazonOptions
	logger logger.Logger
}

// NewAmazon creates a Transcribe Streaming backend using the default AWS credential chain
func NewAmazon(ctx context.Context, opts AmazonOptions, log logger.Logger) (Backend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &amazonBackend{
		client: transcribestreaming.NewFromConfig(cfg),
		opts:   opts,
		logger: log,
	}, nil
}

func (b *amazonBackend) Name() string { return "amazon" }

func (b *amazonBackend) Capabilities() Capabilities {
	return Capabilities{Timing: true, Interim: true}
}

func (b *amazonBackend) Transcribe(ctx context.Context, audio io.Reader) iter.Seq2[Segment, error] {
	return func(yield func(Segment, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		resp, err := b.client.StartStreamTranscription(ctx, &transcribestreaming.StartStreamTranscriptionInput{
			LanguageCode:         types.LanguageCode(b.opts.LanguageCode),
			MediaEncoding:        types.MediaEncodingPcm,
			MediaSampleRateHertz: aws.Int32(int32(b.opts.SampleRate)),
		})
		if err != nil {
			yield(Segment{}, fmt.Errorf("start stream transcription: %w", err))
			return
		}
		stream := resp.GetStream()
		defer stream.Close()

		sent := make(chan error, 1)
		go func() { sent <- b.pump(ctx, stream, audio) }()
		defer func() {
			cancel()
			<-sent
		}()
		b.logger.Debug(ctx, "Opened transcribe streaming session (lang=%s)", b.opts.LanguageCode)

		for event := range stream.Events() {
			te, ok := event.(*types.TranscriptResultStreamMemberTranscriptEvent)
			if !ok || te.Value.Transcript == nil {
				continue
			}
			for _, result := range te.Value.Transcript.Results {
				seg, ok := amazonSegment(result)
				if !ok {
					continue
				}
				if !yield(seg, nil) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			cancel()
			yield(Segment{}, fmt.Errorf("transcript stream: %w", err))
		}
	}
}

func (b *amazonBackend) pump(ctx context.Context, stream *transcribestreaming.StartStreamTranscriptionEventStream, audio io.Reader) error {
	buf := make([]byte, amazonChunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			event := &types.AudioStreamMemberAudioEvent{
				Value: types.AudioEvent{AudioChunk: append([]byte(nil), buf[:n]...)},
			}
			if serr := stream.Send(ctx, event); serr != nil {
				return fmt.Errorf("send audio: %w", serr)
			}
		}
		if errors.Is(err, io.EOF) {
			return stream.Writer.Close()
		}
		if err != nil {
			stream.Writer.Close()
			return fmt.Errorf("read audio: %w", err)
		}
	}
}

// amazonSegment converts a result; offsets arrive in seconds
func amazonSegment(result types.Result) (Segment, bool) {
	if len(result.Alternatives) == 0 || result.Alternatives[0].Transcript == nil {
		return Segment{}, false
	}
	return Segment{
		Partial:   result.IsPartial,
		Content:   aws.ToString(result.Alternatives[0].Transcript),
		StartTime: Millis(secondsToMillis(result.StartTime)),
		EndTime:   Millis(secondsToMillis(result.EndTime)),
	}, true
}

func secondsToMillis(s float64) int64 {
	return int64(math.Round(s * 1000))
}
