package encoder

import (
	"github.com/nguyentantai21042004/announce-flow/internal/config"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
	"github.com/nguyentantai21042004/announce-flow/pkg/executor"
)

type implEncoder struct {
	cfg        config.EncoderConfig
	sampleRate int
	outputDir  string
	exec       executor.Executor
	logger     logger.Logger
}

// New creates an Encoder that shells out to lame
func New(cfg config.EncoderConfig, sampleRate int, outputDir string, exec executor.Executor, log logger.Logger) Encoder {
	return &implEncoder{
		cfg:        cfg,
		sampleRate: sampleRate,
		outputDir:  outputDir,
		exec:       exec,
		logger:     log,
	}
}
