package writer

import "github.com/nguyentantai21042004/caption-notes/internal/logger"

type implWriter struct {
	logger logger.Logger
}

// New creates a filesystem Writer.
func New(log logger.Logger) Writer {
	return &implWriter{logger: log}
}
