package orchestrator

import "context"

// Orchestrator drives one source through acquisition, transcription, synthesis and persistence.
type Orchestrator interface {
	Run(ctx context.Context, source string, opts Options) (*RunResult, error)
}
