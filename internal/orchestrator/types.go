package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
	"github.com/nguyentantai21042004/caption-notes/internal/writer"
)

// State is a pipeline state.
type State string

const (
	StateStart        State = "START"
	StateAcquiring    State = "ACQUIRING"
	StateTranscribing State = "TRANSCRIBING"
	StateSynthesizing State = "SYNTHESIZING"
	StatePersisting   State = "PERSISTING"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// Options are the per-run parameters. Zero values fall back to configuration.
type Options struct {
	OutputDir        string
	ModelSize        string
	Title            string
	PersistSubtitles bool
	Language         string
	ExportDocx       bool
}

// RunResult describes a finished or failed run.
type RunResult struct {
	RunID          string
	Fingerprint    string
	State          State
	FailedStage    State
	Reason         string
	OutputDir      string
	MarkdownPath   string
	JSONPath       string
	DocxPath       string
	TranscriptPath string
	SubtitlePaths  []string
	Note           *models.Note
	Stats          models.TranscriptStats
	Resumed        bool
	Duration       time.Duration
}

// StageError reports the stage a run failed in. It matches the stage's error kind and its
// cause with errors.Is.
type StageError struct {
	Stage  State
	Reason string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Stage, e.Reason, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{stageKind(e.Stage), e.Err}
}

func stageKind(s State) error {
	switch s {
	case StateAcquiring:
		return models.ErrAcquisition
	case StateTranscribing:
		return models.ErrTranscription
	case StateSynthesizing:
		return models.ErrSynthesis
	case StatePersisting:
		return models.ErrPersistence
	default:
		return errUsage
	}
}

var errUsage = errors.New("invalid run")

// notePaths copies writer output into the result.
func (r *RunResult) notePaths(p writer.NotePaths) {
	r.MarkdownPath = p.Markdown
	r.JSONPath = p.JSON
	r.DocxPath = p.Docx
}
