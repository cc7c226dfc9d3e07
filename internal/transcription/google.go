package transcription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
)

const googleChunkSize = 8192

// GoogleOptions configures the Cloud Speech backend
type GoogleOptions struct {
	LanguageCode string
	Model        string
	SampleRate   int
	PhraseSets   []string
}

type googleBackend struct {
	client *speech.Client
	opts   GoogleOptions
	logger logger.Logger
}

// NewGoogle creates a Cloud Speech v1 backend using application default credentials
func NewGoogle(ctx context.Context, opts GoogleOptions, log logger.Logger) (Backend, io.Closer, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create speech client: %w", err)
	}
	return &googleBackend{client: client, opts: opts, logger: log}, client, nil
}

func (b *googleBackend) Name() string { return "google" }

func (b *googleBackend) Capabilities() Capabilities {
	return Capabilities{Timing: true, Interim: true}
}

func (b *googleBackend) Transcribe(ctx context.Context, audio io.Reader) iter.Seq2[Segment, error] {
	return func(yield func(Segment, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream, err := b.client.StreamingRecognize(ctx)
		if err != nil {
			yield(Segment{}, fmt.Errorf("open streaming recognize: %w", err))
			return
		}
		if err := stream.Send(b.configRequest()); err != nil {
			yield(Segment{}, fmt.Errorf("send streaming config: %w", err))
			return
		}

		sent := make(chan error, 1)
		go func() { sent <- b.pump(stream, audio) }()
		// The pump must be gone before a retry reads from the same audio.
		defer func() {
			cancel()
			<-sent
		}()
		b.logger.Debug(ctx, "Opened streaming recognize session (model=%s, lang=%s)", b.opts.Model, b.opts.LanguageCode)

		var lastEnd int64
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				cancel()
				yield(Segment{}, fmt.Errorf("receive recognition: %w", err))
				return
			}
			if status := resp.GetError(); status != nil {
				cancel()
				yield(Segment{}, fmt.Errorf("recognition error %d: %s", status.GetCode(), status.GetMessage()))
				return
			}

			for _, result := range resp.GetResults() {
				seg, ok := googleSegment(result, lastEnd)
				if !ok {
					continue
				}
				if !seg.Partial {
					lastEnd = *seg.EndTime
				}
				if !yield(seg, nil) {
					return
				}
			}
		}
	}
}

func (b *googleBackend) configRequest() *speechpb.StreamingRecognizeRequest {
	cfg := &speechpb.RecognitionConfig{
		Encoding:        speechpb.RecognitionConfig_LINEAR16,
		SampleRateHertz: int32(b.opts.SampleRate),
		LanguageCode:    b.opts.LanguageCode,
		Model:           b.opts.Model,
	}
	if len(b.opts.PhraseSets) > 0 {
		cfg.Adaptation = &speechpb.SpeechAdaptation{PhraseSetReferences: b.opts.PhraseSets}
	}
	return &speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config:         cfg,
				InterimResults: true,
			},
		},
	}
}

// pump forwards audio until it is exhausted, then half-closes the stream
func (b *googleBackend) pump(stream speechpb.Speech_StreamingRecognizeClient, audio io.Reader) error {
	buf := make([]byte, googleChunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			req := &speechpb.StreamingRecognizeRequest{
				StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{AudioContent: append([]byte(nil), buf[:n]...)},
			}
			if serr := stream.Send(req); serr != nil {
				return fmt.Errorf("send audio: %w", serr)
			}
		}
		if errors.Is(err, io.EOF) {
			return stream.CloseSend()
		}
		if err != nil {
			stream.CloseSend()
			return fmt.Errorf("read audio: %w", err)
		}
	}
}

// googleSegment converts a recognition result. A segment starts where the
// previous final ended and ends at the result's offset.
func googleSegment(result *speechpb.StreamingRecognitionResult, lastEnd int64) (Segment, bool) {
	alts := result.GetAlternatives()
	if len(alts) == 0 {
		return Segment{}, false
	}
	end := lastEnd
	if d := result.GetResultEndTime(); d != nil {
		end = d.AsDuration().Milliseconds()
	}
	return Segment{
		Partial:   !result.GetIsFinal(),
		Content:   alts[0].GetTranscript(),
		StartTime: Millis(lastEnd),
		EndTime:   Millis(end),
	}, true
}
