package transcriber

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/nguyentantai21042004/caption-notes/internal/config"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/internal/models"
	"github.com/nguyentantai21042004/caption-notes/internal/retry"
)

const whisperJSON = `{
  "transcription": [
    {"offsets": {"from": 0, "to": 2500}, "text": " 凯撒在高卢", "tokens": [{"p": 0.9}, {"p": 0.7}]},
    {"offsets": {"from": 2500, "to": 2500}, "text": " [BLANK_AUDIO]"},
    {"offsets": {"from": 2500, "to": 6000}, "text": " 随后渡过卢比孔河"}
  ]
}`

type fakeWhisper struct {
	args   []string
	output string
	err    error
}

func (f *fakeWhisper) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return f.ExecuteInDir(ctx, "", name, args...)
}

func (f *fakeWhisper) ExecuteInDir(_ context.Context, _ string, _ string, args ...string) (string, error) {
	f.args = args
	if f.err != nil {
		return "", f.err
	}
	for i, a := range args {
		if a == "--output-file" {
			return "", os.WriteFile(args[i+1]+".json", []byte(f.output), 0644)
		}
	}
	return "", nil
}

func (f *fakeWhisper) LookPath(name string) (string, error) { return name, nil }

func whisperSetup(t *testing.T, exec *fakeWhisper) (Transcriber, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ggml-base.bin"), []byte("model"), 0644))
	audio := filepath.Join(dir, "audio.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0644))

	cfg := config.WhisperConfig{
		BinaryPath:   "whisper-cli",
		ModelDir:     dir,
		DefaultModel: "base",
		Language:     "zh",
		Prompt:       "以下是普通话的句子。",
		Threads:      4,
	}
	return NewWhisper(cfg, exec, logger.NewNop()), audio
}

func TestWhisperTranscribe(t *testing.T) {
	exec := &fakeWhisper{output: whisperJSON}
	w, audio := whisperSetup(t, exec)

	got, err := w.Transcribe(context.Background(), audio, "", "")
	require.NoError(t, err)

	require.Len(t, got.Segments, 2)
	assert.Equal(t, models.Segment{StartMs: 0, EndMs: 2500, Text: "凯撒在高卢", Confidence: 0.8}, roundConf(got.Segments[0]))
	assert.Equal(t, "随后渡过卢比孔河", got.Segments[1].Text)
	assert.Equal(t, int64(6000), got.DurationMs)
	assert.Equal(t, "zh", got.Language)

	joined := strings.Join(exec.args, " ")
	assert.Contains(t, joined, "-ojf")
	assert.Contains(t, joined, "--prompt 以下是普通话的句子。")
	assert.Contains(t, joined, "-ng")
	assert.NoFileExists(t, strings.TrimSuffix(audio, ".wav")+".json", "whisper output is removed after parsing")
}

func roundConf(s models.Segment) models.Segment {
	s.Confidence = float64(int(s.Confidence*100+0.5)) / 100
	return s
}

func TestWhisperErrors(t *testing.T) {
	t.Run("missing model", func(t *testing.T) {
		w, audio := whisperSetup(t, &fakeWhisper{output: whisperJSON})
		_, err := w.Transcribe(context.Background(), audio, "large", "zh")
		assert.ErrorIs(t, err, models.ErrTranscription)
		assert.Equal(t, "model_missing", models.Reason(err))
	})

	t.Run("binary failure", func(t *testing.T) {
		w, audio := whisperSetup(t, &fakeWhisper{err: errors.New("exit status 1")})
		_, err := w.Transcribe(context.Background(), audio, "base", "zh")
		assert.ErrorIs(t, err, models.ErrTranscription)
		assert.Equal(t, "whisper", models.Reason(err))
	})

	t.Run("garbage output", func(t *testing.T) {
		w, audio := whisperSetup(t, &fakeWhisper{output: "not json"})
		_, err := w.Transcribe(context.Background(), audio, "base", "zh")
		assert.Equal(t, "whisper_output", models.Reason(err))
	})
}

func TestModelPath(t *testing.T) {
	assert.Equal(t, filepath.Join("m", "ggml-base.bin"), ModelPath("m", "base"))
	assert.Equal(t, filepath.Join("m", "ggml-large-v3.bin"), ModelPath("m", "large"))
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Transcriber.Backend = "gcp_speech"
	tr, err := New(cfg, &fakeWhisper{}, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "gcp_speech", tr.Name())

	cfg.Transcriber.Backend = "whisper"
	tr, err = New(cfg, &fakeWhisper{}, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "whisper", tr.Name())

	cfg.Transcriber.Backend = "azure"
	_, err = New(cfg, &fakeWhisper{}, logger.NewNop())
	assert.Error(t, err)
}

func TestCollectAndGroupWords(t *testing.T) {
	resp := &speechpb.LongRunningRecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{{
		Alternatives: []*speechpb.SpeechRecognitionAlternative{{
			Confidence: 0.5,
			Words: []*speechpb.WordInfo{
				{Word: "凯撒", StartTime: durationpb.New(0), EndTime: durationpb.New(800 * time.Millisecond), Confidence: 0.9},
				{Word: "渡河", StartTime: durationpb.New(time.Second), EndTime: durationpb.New(2 * time.Second)},
				{Word: "内战", StartTime: durationpb.New(11 * time.Second), EndTime: durationpb.New(12 * time.Second), Confidence: 0.7},
			},
		}},
	}}}

	words := collectWords(resp, 240_000)
	require.Len(t, words, 3)
	assert.Equal(t, int64(240_000), words[0].start)
	assert.Equal(t, 0.5, words[1].confidence, "falls back to alternative confidence")

	segs := groupWords(words, 10_000, joiner("zh"))
	require.Len(t, segs, 2)
	assert.Equal(t, "凯撒渡河", segs[0].Text)
	assert.Equal(t, int64(240_000), segs[0].StartMs)
	assert.Equal(t, int64(242_000), segs[0].EndMs)
	assert.Equal(t, "内战", segs[1].Text)

	assert.Equal(t, "a b", groupWords([]word{{text: "a", end: 1}, {text: "b", start: 1, end: 2}}, 10_000, joiner("en"))[0].Text)
}

func TestLanguageCode(t *testing.T) {
	assert.Equal(t, "cmn-Hans-CN", LanguageCode("zh"))
	assert.Equal(t, "cmn-Hans-CN", LanguageCode(""))
	assert.Equal(t, "en-US", LanguageCode("EN"))
	assert.Equal(t, "fr-FR", LanguageCode("fr-FR"))
}

func TestClassify(t *testing.T) {
	transient := classify(status.Error(codes.Unavailable, "down"))
	assert.ErrorIs(t, transient, models.ErrTranscription)
	assert.True(t, retry.IsTransient(transient))

	permanent := classify(status.Error(codes.InvalidArgument, "bad audio"))
	assert.ErrorIs(t, permanent, models.ErrTranscription)
	assert.False(t, retry.IsTransient(permanent))

	assert.ErrorIs(t, classify(status.Error(codes.Canceled, "stop")), context.Canceled)
}

func writeWAV(t *testing.T, path string, rate int, samples int) {
	t.Helper()
	data := make([]byte, samples*2)
	hdr := make([]byte, 44)
	copy(hdr[0:], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:], uint32(36+len(data)))
	copy(hdr[8:], "WAVE")
	copy(hdr[12:], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:], 16)
	binary.LittleEndian.PutUint16(hdr[20:], 1)
	binary.LittleEndian.PutUint16(hdr[22:], 1)
	binary.LittleEndian.PutUint32(hdr[24:], uint32(rate))
	binary.LittleEndian.PutUint32(hdr[28:], uint32(rate*2))
	binary.LittleEndian.PutUint16(hdr[32:], 2)
	binary.LittleEndian.PutUint16(hdr[34:], 16)
	copy(hdr[36:], "data")
	binary.LittleEndian.PutUint32(hdr[40:], uint32(len(data)))
	require.NoError(t, os.WriteFile(path, append(hdr, data...), 0644))
}

func TestReadPCM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.wav")
	writeWAV(t, path, 16000, 1600)

	pcm, rate, err := readPCM(path)
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)
	assert.Len(t, pcm, 3200)

	bad := filepath.Join(dir, "b.wav")
	require.NoError(t, os.WriteFile(bad, []byte("not a wav file"), 0644))
	_, _, err = readPCM(bad)
	assert.Error(t, err)
}
