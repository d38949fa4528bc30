package acquirer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/caption-notes/internal/config"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

// fakeExecutor imitates ffmpeg and yt-dlp by creating the files they would write.
type fakeExecutor struct {
	calls  [][]string
	title  string
	failOn string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return f.ExecuteInDir(ctx, "", name, args...)
}

func (f *fakeExecutor) ExecuteInDir(_ context.Context, _ string, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if name == f.failOn {
		return "", errors.New("exit status 1")
	}
	switch name {
	case "ffmpeg":
		return "", os.WriteFile(args[len(args)-1], []byte("RIFF"), 0644)
	case "yt-dlp":
		var template string
		for i, a := range args {
			if a == "-o" {
				template = args[i+1]
			}
		}
		path := strings.Replace(template, "%(ext)s", "m4a", 1)
		if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
			return "", err
		}
		return f.title + "\n" + path + "\n", nil
	}
	return "", nil
}

func (f *fakeExecutor) LookPath(name string) (string, error) { return name, nil }

func newTestAcquirer(t *testing.T, exec *fakeExecutor) (Acquirer, string) {
	t.Helper()
	tmp := t.TempDir()
	cfg := &config.Config{}
	cfg.Paths.Temp = filepath.Join(tmp, "temp")
	cfg.Acquirer.FFmpegPath = "ffmpeg"
	cfg.Acquirer.YtDlpPath = "yt-dlp"
	cfg.Acquirer.Formats = []string{".mp4", "mkv"}
	return New(cfg, exec, logger.NewNop()), tmp
}

func TestAcquireLocal(t *testing.T) {
	exec := &fakeExecutor{}
	a, tmp := newTestAcquirer(t, exec)

	src := filepath.Join(tmp, "凯撒传.MP4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0644))

	h, err := a.Acquire(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "凯撒传", h.Title)
	assert.FileExists(t, h.Path)
	assert.Equal(t, ".wav", filepath.Ext(h.Path))

	require.Len(t, exec.calls, 1)
	assert.Contains(t, strings.Join(exec.calls[0], " "), "-ar 16000 -ac 1")

	h.Cleanup()
	assert.NoFileExists(t, h.Path)
	assert.FileExists(t, src, "the source is never removed")
	h.Cleanup()
}

func TestAcquireLocalErrors(t *testing.T) {
	exec := &fakeExecutor{}
	a, tmp := newTestAcquirer(t, exec)

	doc := filepath.Join(tmp, "notes.pdf")
	require.NoError(t, os.WriteFile(doc, []byte("x"), 0644))
	bad := filepath.Join(tmp, "bad.mkv")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0644))

	tests := []struct {
		name   string
		source string
		fail   string
		reason string
	}{
		{"missing file", filepath.Join(tmp, "missing.mp4"), "", "not_found"},
		{"unsupported extension", doc, "", "unsupported_format"},
		{"directory", tmp, "", "not_a_file"},
		{"ffmpeg failure", bad, "ffmpeg", "ffmpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec.failOn = tt.fail
			_, err := a.Acquire(context.Background(), tt.source)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrAcquisition)
			assert.Equal(t, tt.reason, models.Reason(err))
		})
	}
}

func TestAcquireURL(t *testing.T) {
	exec := &fakeExecutor{title: "罗马共和国的衰落"}
	a, _ := newTestAcquirer(t, exec)

	h, err := a.Acquire(context.Background(), "https://www.youtube.com/watch?v=abc")
	require.NoError(t, err)
	assert.Equal(t, "罗马共和国的衰落", h.Title)
	assert.FileExists(t, h.Path)

	require.Len(t, exec.calls, 2)
	assert.Equal(t, "yt-dlp", exec.calls[0][0])
	downloaded := exec.calls[1][2]
	assert.FileExists(t, downloaded)

	h.Cleanup()
	assert.NoFileExists(t, h.Path)
	assert.NoFileExists(t, downloaded)
}

func TestAcquireURLFailure(t *testing.T) {
	a, _ := newTestAcquirer(t, &fakeExecutor{failOn: "yt-dlp"})
	_, err := a.Acquire(context.Background(), "http://example.com/v")
	assert.ErrorIs(t, err, models.ErrAcquisition)
	assert.Equal(t, "download", models.Reason(err))
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://youtu.be/x"))
	assert.True(t, IsURL(" HTTP://example.com"))
	assert.False(t, IsURL("/videos/a.mp4"))
	assert.False(t, IsURL("ftp://example.com/a.mp4"))
}

func TestParseDownloadOutput(t *testing.T) {
	title, path := parseDownloadOutput("标题\r\n/tmp/a.m4a\r\n")
	assert.Equal(t, "标题", title)
	assert.Equal(t, "/tmp/a.m4a", path)

	title, path = parseDownloadOutput("/tmp/a.m4a")
	assert.Empty(t, title)
	assert.Equal(t, "/tmp/a.m4a", path)
}
