package writer

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

// Writer persists run artifacts under an output directory.
type Writer interface {
	// SaveTranscript writes transcription_data.json atomically.
	SaveTranscript(ctx context.Context, dir string, rec TranscriptRecord) (string, error)
	// LoadTranscript reads transcription_data.json from dir.
	LoadTranscript(dir string) (TranscriptRecord, error)
	// SaveSubtitles writes subtitles/subtitle.{srt,vtt,txt}.
	SaveSubtitles(ctx context.Context, dir string, t models.Transcript) ([]string, error)
	// SaveNote commits the Markdown and JSON note as a pair, then the optional DOCX exports.
	SaveNote(ctx context.Context, dir string, note models.Note, opts NoteOptions) (NotePaths, error)
}

// TranscriptRecord is the persisted transcript with the facts needed to resume a run.
type TranscriptRecord struct {
	Fingerprint string                 `json:"fingerprint"`
	Source      string                 `json:"source"`
	TitleHint   string                 `json:"title_hint,omitempty"`
	ModelSize   string                 `json:"model_size"`
	Language    string                 `json:"language,omitempty"`
	Transcriber string                 `json:"transcriber"`
	CreatedAt   time.Time              `json:"created_at"`
	Stats       models.TranscriptStats `json:"statistics"`
	Transcript  models.Transcript      `json:"transcript"`
}

// NoteOptions controls the optional exports of SaveNote.
type NoteOptions struct {
	ExportDocx bool
	// Transcript, when set with ExportDocx, is also exported as a plain transcript document.
	Transcript *models.Transcript
}

// NotePaths lists the files SaveNote produced.
type NotePaths struct {
	Markdown       string
	JSON           string
	Docx           string
	TranscriptDocx string
}
