package acquirer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

// download fetches the best audio stream with yt-dlp, then converts it like a local file.
// yt-dlp prints the video title and the final file path, one per line.
func (a *implAcquirer) download(ctx context.Context, url string) (AudioHandle, error) {
	a.logger.Info(ctx, "Downloading audio: %s", url)

	template := filepath.Join(a.tempDir, "download_"+uuid.NewString()[:8]+".%(ext)s")
	args := []string{
		"-f", "bestaudio/best",
		"--no-playlist",
		"--no-progress",
		"--print", "title",
		"--print", "after_move:filepath",
		"--no-simulate",
		"-o", template,
		url,
	}

	out, err := a.executor.Execute(ctx, a.cfg.YtDlpPath, args...)
	if err != nil {
		return AudioHandle{}, models.NewError(models.ErrAcquisition, "download", fmt.Errorf("yt-dlp download: %w", err))
	}

	title, downloaded := parseDownloadOutput(out)
	if downloaded == "" {
		return AudioHandle{}, models.NewError(models.ErrAcquisition, "download",
			fmt.Errorf("yt-dlp did not report a downloaded file"))
	}
	if _, err := os.Stat(downloaded); err != nil {
		return AudioHandle{}, models.NewError(models.ErrAcquisition, "download", fmt.Errorf("stat download: %w", err))
	}

	stem := strings.TrimSuffix(filepath.Base(downloaded), filepath.Ext(downloaded))
	audioPath, err := a.extractAudio(ctx, downloaded, stem)
	if err != nil {
		a.cleanupFunc(ctx, downloaded)()
		return AudioHandle{}, err
	}

	a.logger.Info(ctx, "Downloaded %q", title)
	return AudioHandle{
		Path:    audioPath,
		Title:   title,
		Cleanup: a.cleanupFunc(ctx, audioPath, downloaded),
	}, nil
}

func parseDownloadOutput(out string) (title, path string) {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	switch len(lines) {
	case 0:
		return "", ""
	case 1:
		return "", lines[0]
	default:
		return lines[0], lines[len(lines)-1]
	}
}
