package segmenter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/nguyentantai21042004/announce-flow/internal/config"
	"github.com/nguyentantai21042004/announce-flow/pkg/executor"
)

const firstReadSize = 4096

func (s *implSegmenter) Next(ctx context.Context) (*Capture, error) {
	args := recorderArgs(s.cfg)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		proc, err := s.exec.Start(ctx, executor.Command{Name: s.cfg.BinaryPath, Args: args})
		if err != nil {
			return nil, fmt.Errorf("start recorder: %w", err)
		}
		s.logger.Debug(ctx, "Recorder waiting for sound")

		out := proc.Stdout()
		first := make([]byte, firstReadSize)
		n, rerr := io.ReadAtLeast(out, first, 1)
		if n > 0 {
			startedAt := s.now()
			return &Capture{
				ID:        startedAt.Format(IDLayout),
				StartedAt: startedAt,
				Audio:     io.MultiReader(bytes.NewReader(first[:n]), out),
				Wait:      proc.Wait,
			}, nil
		}

		// Exited before any audio
		werr := proc.Wait()
		if werr != nil {
			return nil, fmt.Errorf("recorder exited before audio: %w", werr)
		}
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, fmt.Errorf("read recorder output: %w", rerr)
		}
		s.logger.Debug(ctx, "Recorder exited without audio, respawning")
	}
}

// recorderArgs builds the sox command line: capture input, raw PCM to
// stdout, and a silence effect that starts on sound and stops after the end gate.
func recorderArgs(cfg config.RecorderConfig) []string {
	args := append([]string{}, cfg.Input...)
	args = append(args,
		"-c", "1",
		"-b", "16",
		"-r", strconv.Itoa(cfg.SampleRate),
		"-e", "signed-integer",
		"-L",
		"-t", "raw", "-",
		"silence",
		"1", formatSeconds(cfg.Silence.StartDuration), cfg.Silence.StartThreshold,
		strconv.Itoa(cfg.Silence.EndPeriods), formatSeconds(cfg.Silence.EndDuration), cfg.Silence.EndThreshold,
	)
	return args
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
