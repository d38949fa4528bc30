package transcriber

import (
	"context"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

// Transcriber converts an audio file into timed transcript segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, modelSize, language string) (models.Transcript, error)
	// Name identifies the backend in note metadata.
	Name() string
}
