package transcriber

import (
	"fmt"

	"github.com/nguyentantai21042004/caption-notes/internal/config"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/pkg/executor"
)

// New selects the transcription backend named by cfg.Transcriber.Backend.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) (Transcriber, error) {
	switch cfg.Transcriber.Backend {
	case "", "whisper":
		return NewWhisper(cfg.Whisper, exec, log), nil
	case "gcp_speech":
		return NewSpeech(cfg.Speech, log), nil
	default:
		return nil, fmt.Errorf("unknown transcriber backend %q", cfg.Transcriber.Backend)
	}
}
