package orchestrator

import (
	"errors"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitUsage        = 1
	ExitAcquiring    = 2
	ExitTranscribing = 3
	ExitSynthesizing = 4
	ExitPersisting   = 5
	ExitCancelled    = 130
)

// ExitCode maps a Run error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, models.ErrCancelled) {
		return ExitCancelled
	}
	var se *StageError
	if !errors.As(err, &se) {
		return ExitUsage
	}
	switch se.Stage {
	case StateAcquiring:
		return ExitAcquiring
	case StateTranscribing:
		return ExitTranscribing
	case StateSynthesizing:
		return ExitSynthesizing
	case StatePersisting:
		return ExitPersisting
	default:
		return ExitUsage
	}
}
