package segmenter

import (
	"time"

	"github.com/nguyentantai21042004/announce-flow/internal/config"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
	"github.com/nguyentantai21042004/announce-flow/pkg/executor"
)

// IDLayout formats session ids: local time, second resolution
const IDLayout = "20060102150405"

type implSegmenter struct {
	cfg    config.RecorderConfig
	exec   executor.Executor
	logger logger.Logger
	now    func() time.Time
}

// New creates a Segmenter that records with sox
func New(cfg config.RecorderConfig, exec executor.Executor, log logger.Logger) Segmenter {
	return &implSegmenter{
		cfg:    cfg,
		exec:   exec,
		logger: log,
		now:    time.Now,
	}
}
