package transcriber

import (
	"context"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/nguyentantai21042004/caption-notes/internal/config"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/internal/models"
	"github.com/nguyentantai21042004/caption-notes/internal/retry"
)

// chunkSeconds keeps each inline request under the 10 MB content limit at 16 kHz mono PCM.
const chunkSeconds = 240

type implSpeech struct {
	cfg    config.SpeechConfig
	logger logger.Logger
}

// NewSpeech creates a Transcriber backed by Cloud Speech-to-Text long-running recognition.
func NewSpeech(cfg config.SpeechConfig, log logger.Logger) Transcriber {
	return &implSpeech{cfg: cfg, logger: log}
}

func (s *implSpeech) Name() string { return "gcp_speech" }

type word struct {
	text       string
	start, end int64
	confidence float64
}

// Transcribe sends the WAV audio in chunks and groups recognized words into fixed-length segments.
// modelSize only applies to whisper and is ignored here.
func (s *implSpeech) Transcribe(ctx context.Context, audioPath, _ string, language string) (models.Transcript, error) {
	pcm, rate, err := readPCM(audioPath)
	if err != nil {
		return models.Transcript{}, models.NewError(models.ErrTranscription, "audio_unreadable", err)
	}
	if s.cfg.SampleRateHertz > 0 && rate != s.cfg.SampleRateHertz {
		s.logger.Warn(ctx, "WAV sample rate %d differs from configured %d, using file rate", rate, s.cfg.SampleRateHertz)
	}

	var opts []option.ClientOption
	if s.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.cfg.CredentialsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return models.Transcript{}, models.NewError(models.ErrTranscription, "speech_client", fmt.Errorf("speech client: %w", err))
	}
	defer client.Close()

	code := LanguageCode(language)
	chunkBytes := chunkSeconds * rate * 2

	var words []word
	for offset := 0; offset < len(pcm); offset += chunkBytes {
		if err := ctx.Err(); err != nil {
			return models.Transcript{}, err
		}
		end := min(offset+chunkBytes, len(pcm))
		baseMs := int64(offset) * 1000 / int64(rate*2)

		s.logger.Debug(ctx, "Recognizing chunk at %s", time.Duration(baseMs)*time.Millisecond)

		op, err := client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
			Config: &speechpb.RecognitionConfig{
				Encoding:                   speechpb.RecognitionConfig_LINEAR16,
				SampleRateHertz:            int32(rate),
				AudioChannelCount:          1,
				LanguageCode:               code,
				Model:                      s.cfg.Model,
				EnableWordTimeOffsets:      true,
				EnableAutomaticPunctuation: true,
			},
			Audio: &speechpb.RecognitionAudio{
				AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm[offset:end]},
			},
		})
		if err != nil {
			return models.Transcript{}, classify(err)
		}
		resp, err := op.Wait(ctx)
		if err != nil {
			return models.Transcript{}, classify(err)
		}
		words = append(words, collectWords(resp, baseMs)...)
	}

	segLen := int64(s.cfg.SegmentSeconds) * 1000
	if segLen <= 0 {
		segLen = 10_000
	}
	t := models.Transcript{
		Segments: groupWords(words, segLen, joiner(language)),
		Language: language,
	}
	t.DurationMs = t.End()

	s.logger.Info(ctx, "Transcription completed: %d segments from %d words", len(t.Segments), len(words))
	return t, nil
}

// classify wraps a gRPC failure, marking everything except throttling and availability
// errors as permanent.
func classify(err error) error {
	wrapped := models.NewError(models.ErrTranscription, "speech_api", fmt.Errorf("speech recognize: %w", err))
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return wrapped
	case codes.Canceled:
		return context.Canceled
	default:
		return retry.Permanent(wrapped)
	}
}

func collectWords(resp *speechpb.LongRunningRecognizeResponse, baseMs int64) []word {
	var out []word
	if resp == nil {
		return nil
	}
	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		alt := r.Alternatives[0]
		for _, w := range alt.Words {
			if w == nil || strings.TrimSpace(w.Word) == "" {
				continue
			}
			conf := float64(w.Confidence)
			if conf == 0 {
				conf = float64(alt.Confidence)
			}
			out = append(out, word{
				text:       strings.TrimSpace(w.Word),
				start:      baseMs + durMs(w.StartTime),
				end:        baseMs + durMs(w.EndTime),
				confidence: conf,
			})
		}
	}
	return out
}

func durMs(d *durationpb.Duration) int64 {
	if d == nil {
		return 0
	}
	return d.AsDuration().Milliseconds()
}

// groupWords packs words into segments spanning at most segLen milliseconds.
func groupWords(words []word, segLen int64, sep string) []models.Segment {
	var (
		segs    []models.Segment
		buf     []string
		start   int64
		end     int64
		confSum float64
		confN   int
	)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		seg := models.Segment{StartMs: start, EndMs: end, Text: strings.Join(buf, sep)}
		if seg.EndMs <= seg.StartMs {
			seg.EndMs = seg.StartMs + 1
		}
		if confN > 0 {
			seg.Confidence = confSum / float64(confN)
		}
		segs = append(segs, seg)
		buf, confSum, confN = nil, 0, 0
	}

	for _, w := range words {
		if len(buf) > 0 && w.start-start >= segLen {
			flush()
		}
		if len(buf) == 0 {
			start, end = w.start, w.end
		}
		buf = append(buf, w.text)
		end = max(end, w.end)
		if w.confidence > 0 {
			confSum += w.confidence
			confN++
		}
	}
	flush()
	return segs
}

// LanguageCode maps a whisper-style language hint to a BCP-47 code.
func LanguageCode(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "auto", "zh", "zh-cn", "chinese":
		return "cmn-Hans-CN"
	case "en", "english":
		return "en-US"
	case "ja":
		return "ja-JP"
	default:
		return lang
	}
}

func joiner(lang string) string {
	switch LanguageCode(lang) {
	case "cmn-Hans-CN", "ja-JP":
		return ""
	default:
		return " "
	}
}
