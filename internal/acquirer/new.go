package acquirer

import (
	"github.com/nguyentantai21042004/caption-notes/internal/config"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/pkg/executor"
)

type implAcquirer struct {
	cfg      config.AcquirerConfig
	tempDir  string
	executor executor.Executor
	logger   logger.Logger
}

// New creates an Acquirer that writes its audio files under cfg.Paths.Temp.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) Acquirer {
	return &implAcquirer{
		cfg:      cfg.Acquirer,
		tempDir:  cfg.Paths.Temp,
		executor: exec,
		logger:   log,
	}
}
