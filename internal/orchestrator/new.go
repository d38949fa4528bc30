package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/caption-notes/internal/acquirer"
	"github.com/nguyentantai21042004/caption-notes/internal/config"
	"github.com/nguyentantai21042004/caption-notes/internal/lock"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/internal/synthesizer"
	"github.com/nguyentantai21042004/caption-notes/internal/transcriber"
	"github.com/nguyentantai21042004/caption-notes/internal/writer"
)

// Deps are the collaborators of a run.
type Deps struct {
	Acquirer    acquirer.Acquirer
	Transcriber transcriber.Transcriber
	Synthesizer synthesizer.Synthesizer
	Writer      writer.Writer
	Locker      lock.Locker

	// CompletionModel and CompletionBackend are recorded in note metadata.
	CompletionModel   string
	CompletionBackend string

	// Now and NewID default to time.Now and random UUIDs.
	Now   func() time.Time
	NewID func() string
}

type implOrchestrator struct {
	cfg    *config.Config
	deps   Deps
	logger logger.Logger
}

// New creates an Orchestrator.
func New(cfg *config.Config, deps Deps, log logger.Logger) Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &implOrchestrator{cfg: cfg, deps: deps, logger: log}
}
