package acquirer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
	"github.com/nguyentantai21042004/caption-notes/internal/retry"
)

// IsURL reports whether source should be downloaded rather than read from disk.
func IsURL(source string) bool {
	s := strings.ToLower(strings.TrimSpace(source))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (a *implAcquirer) Acquire(ctx context.Context, source string) (AudioHandle, error) {
	if err := os.MkdirAll(a.tempDir, 0755); err != nil {
		return AudioHandle{}, models.NewError(models.ErrAcquisition, "temp_dir", fmt.Errorf("create temp dir: %w", err))
	}
	if IsURL(source) {
		return a.download(ctx, source)
	}
	return a.local(ctx, source)
}

func (a *implAcquirer) local(ctx context.Context, path string) (AudioHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return AudioHandle{}, retry.Permanent(models.NewError(models.ErrAcquisition, "not_found", fmt.Errorf("stat source: %w", err)))
	}
	if info.IsDir() {
		return AudioHandle{}, retry.Permanent(models.NewError(models.ErrAcquisition, "not_a_file", fmt.Errorf("%s is a directory", path)))
	}
	if !a.supported(path) {
		return AudioHandle{}, retry.Permanent(models.NewError(models.ErrAcquisition, "unsupported_format",
			fmt.Errorf("unsupported file format %q", filepath.Ext(path))))
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	audioPath, err := a.extractAudio(ctx, path, stem)
	if err != nil {
		return AudioHandle{}, err
	}
	return AudioHandle{
		Path:    audioPath,
		Title:   stem,
		Cleanup: a.cleanupFunc(ctx, audioPath),
	}, nil
}

func (a *implAcquirer) supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range a.cfg.Formats {
		if strings.EqualFold(f, ext) || strings.EqualFold("."+strings.TrimPrefix(f, "."), ext) {
			return true
		}
	}
	return false
}

// extractAudio converts the media file to 16 kHz mono PCM WAV, the input whisper expects.
func (a *implAcquirer) extractAudio(ctx context.Context, mediaPath, stem string) (string, error) {
	audioPath := filepath.Join(a.tempDir, fmt.Sprintf("%s_%s.wav", stem, uuid.NewString()[:8]))

	a.logger.Info(ctx, "Extracting audio: %s", mediaPath)

	args := []string{
		"-i", mediaPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-threads", "0",
		"-y",
		audioPath,
	}

	if _, err := a.executor.Execute(ctx, a.cfg.FFmpegPath, args...); err != nil {
		_ = os.Remove(audioPath)
		return "", models.NewError(models.ErrAcquisition, "ffmpeg", fmt.Errorf("ffmpeg extract audio: %w", err))
	}

	a.logger.Info(ctx, "Audio extracted successfully: %s", audioPath)
	return audioPath, nil
}

// cleanupFunc removes the given temporary files, logging instead of failing.
func (a *implAcquirer) cleanupFunc(ctx context.Context, paths ...string) func() {
	return func() {
		for _, p := range paths {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				a.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", p, err)
			} else {
				a.logger.Debug(ctx, "Cleaned up temp file: %s", p)
			}
		}
	}
}
