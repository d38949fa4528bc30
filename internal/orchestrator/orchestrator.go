package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nguyentantai21042004/caption-notes/internal/acquirer"
	"github.com/nguyentantai21042004/caption-notes/internal/config"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/internal/models"
	"github.com/nguyentantai21042004/caption-notes/internal/retry"
	"github.com/nguyentantai21042004/caption-notes/internal/synthesizer"
	"github.com/nguyentantai21042004/caption-notes/internal/writer"
)

// Run executes the pipeline for one source. The returned result is never nil; on failure it
// carries the failed stage and reason, and the error is a *StageError.
func (o *implOrchestrator) Run(ctx context.Context, source string, opts Options) (*RunResult, error) {
	start := o.deps.Now()
	opts = o.withDefaults(opts)

	normalized := NormalizeSource(source)
	res := &RunResult{
		RunID:       o.deps.NewID(),
		Fingerprint: Fingerprint(normalized, opts.ModelSize, opts.Language),
		State:       StateStart,
		OutputDir:   opts.OutputDir,
	}
	defer func() { res.Duration = o.deps.Now().Sub(start) }()

	ctx = logger.WithContext(ctx, "run_id", res.RunID, "fingerprint", res.Fingerprint)

	if !config.ValidModelSize(opts.ModelSize) {
		return o.fail(ctx, res, "invalid_model", fmt.Errorf("unknown model size %q", opts.ModelSize))
	}

	o.logger.Info(ctx, "========================================")
	o.logger.Info(ctx, "Starting run for %s (model %s)", normalized, opts.ModelSize)
	o.logger.Info(ctx, "========================================")

	release, err := o.deps.Locker.Acquire(ctx, res.Fingerprint)
	if err != nil {
		return o.fail(ctx, res, "locked", err)
	}
	defer release()

	var (
		transcript models.Transcript
		titleHint  string
	)

	if rec, ok := o.cached(ctx, opts.OutputDir, res.Fingerprint); ok {
		transcript = rec.Transcript
		titleHint = rec.TitleHint
		res.Resumed = true
		res.TranscriptPath = filepath.Join(opts.OutputDir, writer.TranscriptFile)
		o.logger.Info(ctx, "Resuming from saved transcript (%d segments)", len(transcript.Segments))
	} else {
		if err := o.checkpoint(ctx, res, StateAcquiring); err != nil {
			return o.fail(ctx, res, "cancelled", err)
		}
		handle, err := retry.Do(ctx, o.policy(o.cfg.Acquirer.Timeout), func(ctx context.Context) (acquirer.AudioHandle, error) {
			return o.deps.Acquirer.Acquire(ctx, source)
		})
		if err != nil {
			return o.fail(ctx, res, reasonOf(err, "acquisition_failed"), err)
		}
		if handle.Cleanup != nil {
			defer handle.Cleanup()
		}
		if err := checkAudio(handle.Path); err != nil {
			return o.fail(ctx, res, "audio_unreadable", models.NewError(models.ErrAcquisition, "audio_unreadable", err))
		}

		if err := o.checkpoint(ctx, res, StateTranscribing); err != nil {
			return o.fail(ctx, res, "cancelled", err)
		}
		transcript, err = retry.Do(ctx, o.policy(o.cfg.Transcriber.Timeout), func(ctx context.Context) (models.Transcript, error) {
			return o.deps.Transcriber.Transcribe(ctx, handle.Path, opts.ModelSize, opts.Language)
		})
		if err != nil {
			return o.fail(ctx, res, reasonOf(err, "transcription_failed"), err)
		}
		if transcript.IsEmpty() {
			return o.fail(ctx, res, "empty_transcript",
				models.NewError(models.ErrTranscription, "empty_transcript", fmt.Errorf("no speech recognized")))
		}
		if limit := o.cfg.Acquirer.MaxDuration; limit > 0 && transcript.End() > limit.Milliseconds() {
			return o.fail(ctx, res, "too_long",
				models.NewError(models.ErrTranscription, "too_long", fmt.Errorf("audio is longer than %s", limit)))
		}
		if transcript.Language == "" {
			transcript.Language = opts.Language
		}
		titleHint = handle.Title

		path, err := o.deps.Writer.SaveTranscript(ctx, opts.OutputDir, writer.TranscriptRecord{
			Fingerprint: res.Fingerprint,
			Source:      normalized,
			TitleHint:   titleHint,
			ModelSize:   opts.ModelSize,
			Language:    opts.Language,
			Transcriber: o.deps.Transcriber.Name(),
			CreatedAt:   o.deps.Now().UTC(),
			Stats:       transcript.Stats(),
			Transcript:  transcript,
		})
		if err != nil {
			return o.failAt(ctx, res, StatePersisting, reasonOf(err, "transcript_write"), err)
		}
		res.TranscriptPath = path
	}
	res.Stats = transcript.Stats()

	if opts.PersistSubtitles {
		paths, err := o.deps.Writer.SaveSubtitles(ctx, opts.OutputDir, transcript)
		if err != nil {
			return o.failAt(ctx, res, StatePersisting, reasonOf(err, "subtitle_write"), err)
		}
		res.SubtitlePaths = paths
	}

	if err := o.checkpoint(ctx, res, StateSynthesizing); err != nil {
		return o.fail(ctx, res, "cancelled", err)
	}
	note, err := o.deps.Synthesizer.Synthesize(ctx, transcript, synthesizer.TitleHint{
		Override:  opts.Title,
		Extracted: titleHint,
	})
	if err != nil {
		return o.fail(ctx, res, reasonOf(err, "synthesis_failed"), err)
	}
	if len(note.Sections) == 0 {
		return o.fail(ctx, res, "empty_note", models.NewError(models.ErrSynthesis, "empty_note", fmt.Errorf("note has no sections")))
	}

	if err := o.checkpoint(ctx, res, StatePersisting); err != nil {
		return o.fail(ctx, res, "cancelled", err)
	}
	note = note.WithMetadata(models.Metadata{
		RunID:             res.RunID,
		Source:            normalized,
		Fingerprint:       res.Fingerprint,
		Model:             o.deps.CompletionModel,
		CompletionBackend: o.deps.CompletionBackend,
		Transcriber:       o.deps.Transcriber.Name(),
		ModelSize:         opts.ModelSize,
		Language:          opts.Language,
		GeneratedAt:       o.deps.Now().UTC(),
		Stats:             res.Stats,
	})
	paths, err := o.deps.Writer.SaveNote(ctx, opts.OutputDir, note, writer.NoteOptions{
		ExportDocx: opts.ExportDocx,
		Transcript: &transcript,
	})
	if err != nil {
		return o.fail(ctx, res, reasonOf(err, "note_write"), err)
	}
	res.notePaths(paths)
	res.Note = &note
	res.State = StateDone

	o.logger.Info(ctx, "========================================")
	o.logger.Info(ctx, "Run completed: %d sections", len(note.Sections))
	o.logger.Info(ctx, "Output note: %s", res.MarkdownPath)
	o.logger.Info(ctx, "Processing time: %s", o.deps.Now().Sub(start))
	o.logger.Info(ctx, "========================================")
	return res, nil
}

func (o *implOrchestrator) withDefaults(opts Options) Options {
	if opts.OutputDir == "" {
		opts.OutputDir = o.cfg.Paths.Output
	}
	if opts.ModelSize == "" {
		opts.ModelSize = o.cfg.Whisper.DefaultModel
	}
	if opts.Language == "" {
		opts.Language = o.cfg.Whisper.Language
	}
	return opts
}

// policy is the stage retry policy; timeout bounds each collaborator call.
func (o *implOrchestrator) policy(timeout time.Duration) retry.Policy {
	return retry.Policy{
		MaxAttempts:    o.cfg.Retry.MaxAttempts,
		InitialBackoff: o.cfg.Retry.InitialBackoff,
		MaxBackoff:     o.cfg.Retry.MaxBackoff,
		CallTimeout:    timeout,
		Retryable:      retry.IsTransient,
	}
}

// checkpoint observes cancellation and advances to next.
func (o *implOrchestrator) checkpoint(ctx context.Context, res *RunResult, next State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.logger.Debug(ctx, "%s -> %s", res.State, next)
	res.State = next
	return nil
}

// cached returns the saved transcript when it belongs to this fingerprint.
func (o *implOrchestrator) cached(ctx context.Context, dir, fingerprint string) (writer.TranscriptRecord, bool) {
	rec, err := o.deps.Writer.LoadTranscript(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			o.logger.Warn(ctx, "Ignoring unreadable saved transcript: %v", err)
		}
		return rec, false
	}
	if rec.Fingerprint != fingerprint || rec.Transcript.IsEmpty() {
		return rec, false
	}
	return rec, true
}

// fail marks the run failed in its current stage.
func (o *implOrchestrator) fail(ctx context.Context, res *RunResult, reason string, err error) (*RunResult, error) {
	return o.failAt(ctx, res, res.State, reason, err)
}

// failAt marks the run failed in stage. Output writes made before SYNTHESIZING fail as
// PERSISTING regardless of the state the run is in.
func (o *implOrchestrator) failAt(ctx context.Context, res *RunResult, stage State, reason string, err error) (*RunResult, error) {
	err = models.Cancelled(err)
	if errors.Is(err, models.ErrCancelled) {
		reason = "cancelled"
	}
	res.FailedStage = stage
	res.State = StateFailed
	res.Reason = reason

	if reason == "cancelled" {
		o.logger.Warn(ctx, "Run cancelled during %s", res.FailedStage)
	} else {
		o.logger.Error(ctx, "Run failed during %s (%s): %v", res.FailedStage, reason, err)
	}
	return res, &StageError{Stage: res.FailedStage, Reason: reason, Err: err}
}

func reasonOf(err error, fallback string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if r := models.Reason(err); r != "" {
		return r
	}
	return fallback
}

// checkAudio requires a non-empty readable file.
func checkAudio(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat audio: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("audio file %s is empty", path)
	}
	return nil
}
