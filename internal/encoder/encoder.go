package encoder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nguyentantai21042004/announce-flow/pkg/executor"
)

func (e *implEncoder) Path(id string) string {
	return filepath.Join(e.outputDir, id+e.cfg.Extension)
}

func (e *implEncoder) Encode(ctx context.Context, id string, pcm io.Reader) (string, error) {
	path := e.Path(id)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create recording: %w", err)
	}
	defer f.Close()

	proc, err := e.exec.Start(ctx, executor.Command{
		Name:   e.cfg.BinaryPath,
		Args:   encoderArgs(e.sampleRate),
		Stdin:  pcm,
		Stdout: f,
	})
	if err != nil {
		return "", fmt.Errorf("start encoder: %w", err)
	}
	if err := proc.Wait(); err != nil {
		return "", fmt.Errorf("encode %s: %w", id, err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("sync recording: %w", err)
	}

	e.logger.Debug(ctx, "Recording written: %s", path)
	return path, nil
}

// encoderArgs reads raw signed little-endian mono PCM on stdin and writes mp3 to stdout
func encoderArgs(sampleRate int) []string {
	return []string{
		"-r",
		"-s", strconv.FormatFloat(float64(sampleRate)/1000, 'f', -1, 64),
		"--bitwidth", "16",
		"--signed",
		"--little-endian",
		"-m", "m",
		"-", "-",
	}
}
