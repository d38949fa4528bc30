package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
	"github.com/nguyentantai21042004/caption-notes/internal/subtitle"
)

func (w *implWriter) SaveTranscript(ctx context.Context, dir string, rec TranscriptRecord) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", models.NewError(models.ErrPersistence, "output_dir", fmt.Errorf("create output dir: %w", err))
	}
	data, err := marshal(rec)
	if err != nil {
		return "", models.NewError(models.ErrPersistence, "encode", fmt.Errorf("encode transcript: %w", err))
	}

	path := filepath.Join(dir, TranscriptFile)
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return "", models.NewError(models.ErrPersistence, "write", err)
	}
	w.logger.Info(ctx, "Transcript saved: %s (%d segments)", path, len(rec.Transcript.Segments))
	return path, nil
}

func (w *implWriter) LoadTranscript(dir string) (TranscriptRecord, error) {
	var rec TranscriptRecord
	raw, err := os.ReadFile(filepath.Join(dir, TranscriptFile))
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode %s: %w", TranscriptFile, err)
	}
	return rec, nil
}

func (w *implWriter) SaveSubtitles(ctx context.Context, dir string, t models.Transcript) ([]string, error) {
	subDir := filepath.Join(dir, SubtitleDir)
	if err := os.MkdirAll(subDir, 0755); err != nil {
		return nil, models.NewError(models.ErrPersistence, "output_dir", fmt.Errorf("create subtitle dir: %w", err))
	}

	paths := make([]string, 0, len(subtitle.Kinds))
	for _, kind := range subtitle.Kinds {
		content, err := subtitle.Format(t, kind)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(subDir, "subtitle."+string(kind))
		if err := writeFileAtomic(path, []byte(content), 0644); err != nil {
			return paths, models.NewError(models.ErrPersistence, "write", err)
		}
		paths = append(paths, path)
	}
	w.logger.Info(ctx, "Subtitles saved to %s", subDir)
	return paths, nil
}
