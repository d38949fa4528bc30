package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/caption-notes/internal/config"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/internal/models"
	"github.com/nguyentantai21042004/caption-notes/internal/retry"
	"github.com/nguyentantai21042004/caption-notes/pkg/executor"
)

type implWhisper struct {
	cfg      config.WhisperConfig
	executor executor.Executor
	logger   logger.Logger
}

// NewWhisper creates a Transcriber that shells out to the whisper.cpp CLI.
func NewWhisper(cfg config.WhisperConfig, exec executor.Executor, log logger.Logger) Transcriber {
	return &implWhisper{cfg: cfg, executor: exec, logger: log}
}

func (w *implWhisper) Name() string { return "whisper" }

// whisperOutput is the document written by whisper.cpp with -ojf.
type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text   string `json:"text"`
		Tokens []struct {
			P float64 `json:"p"`
		} `json:"tokens"`
	} `json:"transcription"`
}

// ModelPath returns the ggml model file for a model size.
func ModelPath(dir, size string) string {
	name := size
	if size == "large" {
		name = "large-v3"
	}
	return filepath.Join(dir, "ggml-"+name+".bin")
}

// Transcribe runs whisper over a 16 kHz WAV file and parses its JSON output.
func (w *implWhisper) Transcribe(ctx context.Context, audioPath, modelSize, language string) (models.Transcript, error) {
	if modelSize == "" {
		modelSize = w.cfg.DefaultModel
	}
	if language == "" {
		language = w.cfg.Language
	}
	modelPath := ModelPath(w.cfg.ModelDir, modelSize)
	if _, err := os.Stat(modelPath); err != nil {
		return models.Transcript{}, retry.Permanent(models.NewError(models.ErrTranscription, "model_missing",
			fmt.Errorf("whisper model: %w", err)))
	}

	outputPrefix := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))

	w.logger.Info(ctx, "Starting transcription with %d threads, model %s: %s", w.cfg.Threads, modelSize, audioPath)

	// -ojf: full JSON output with per-token probabilities
	// -ml 0 / -mc 0: no segment length or context limit
	// -bo 5: best of 5
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-ojf",
		"-l", language,
		"-t", strconv.Itoa(w.cfg.Threads),
		"-ml", "0",
		"-mc", "0",
		"-bo", "5",
		"--output-file", outputPrefix,
	}
	if w.cfg.Prompt != "" {
		args = append(args, "--prompt", w.cfg.Prompt)
	}
	if !w.cfg.UseGPU {
		args = append(args, "-ng")
	}

	if _, err := w.executor.Execute(ctx, w.cfg.BinaryPath, args...); err != nil {
		return models.Transcript{}, models.NewError(models.ErrTranscription, "whisper", fmt.Errorf("whisper transcribe: %w", err))
	}

	jsonPath := outputPrefix + ".json"
	defer os.Remove(jsonPath)

	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return models.Transcript{}, models.NewError(models.ErrTranscription, "whisper_output", fmt.Errorf("read whisper output: %w", err))
	}

	t, err := parseWhisperJSON(raw)
	if err != nil {
		return models.Transcript{}, models.NewError(models.ErrTranscription, "whisper_output", err)
	}
	t.Language = language

	w.logger.Info(ctx, "Transcription completed: %d segments", len(t.Segments))
	return t, nil
}

func parseWhisperJSON(raw []byte) (models.Transcript, error) {
	var out whisperOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.Transcript{}, fmt.Errorf("decode whisper json: %w", err)
	}

	var t models.Transcript
	for _, s := range out.Transcription {
		text := strings.TrimSpace(s.Text)
		if text == "" || text == "[BLANK_AUDIO]" {
			continue
		}
		seg := models.Segment{StartMs: s.Offsets.From, EndMs: s.Offsets.To, Text: text}
		if seg.EndMs <= seg.StartMs {
			seg.EndMs = seg.StartMs + 1
		}
		if len(s.Tokens) > 0 {
			var sum float64
			for _, tok := range s.Tokens {
				sum += tok.P
			}
			seg.Confidence = sum / float64(len(s.Tokens))
		}
		t.Segments = append(t.Segments, seg)
	}
	t.DurationMs = t.End()
	return t, nil
}
