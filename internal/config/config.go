package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultTitle is used when neither an explicit nor an extracted title is available.
const DefaultTitle = "历史学习笔记"

type Config struct {
	Whisper     WhisperConfig     `yaml:"whisper"`
	Speech      SpeechConfig      `yaml:"speech"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	Acquirer    AcquirerConfig    `yaml:"acquirer"`
	Completion  CompletionConfig  `yaml:"completion"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	Ollama      OllamaConfig      `yaml:"ollama"`
	Synthesis   SynthesisConfig   `yaml:"synthesis"`
	Retry       RetryConfig       `yaml:"retry"`
	Paths       PathsConfig       `yaml:"paths"`
	Output      OutputConfig      `yaml:"output"`
	Watch       WatchConfig       `yaml:"watch"`
	Lock        LockConfig        `yaml:"lock"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`

	// Secrets are read from the environment by Load, never from the YAML file.
	Secrets Secrets `yaml:"-"`
}

type WhisperConfig struct {
	BinaryPath   string `yaml:"binary_path"`
	ModelDir     string `yaml:"model_dir"`
	DefaultModel string `yaml:"default_model"`
	Language     string `yaml:"language"`
	Prompt       string `yaml:"prompt"`
	Threads      int    `yaml:"threads"`
	UseGPU       bool   `yaml:"use_gpu"`
}

type SpeechConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	Model           string `yaml:"model"`
	SampleRateHertz int    `yaml:"sample_rate_hertz"`
	SegmentSeconds  int    `yaml:"segment_seconds"`
}

type TranscriberConfig struct {
	Backend string        `yaml:"backend"`
	Timeout time.Duration `yaml:"timeout"`
}

type AcquirerConfig struct {
	FFmpegPath  string        `yaml:"ffmpeg_path"`
	YtDlpPath   string        `yaml:"ytdlp_path"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxDuration time.Duration `yaml:"max_duration"`
	Formats     []string      `yaml:"supported_formats"`
}

type CompletionConfig struct {
	Backend      string        `yaml:"backend"`
	Timeout      time.Duration `yaml:"timeout"`
	Temperature  float64       `yaml:"temperature"`
	SystemPrompt string        `yaml:"system_prompt"`
}

type GeminiConfig struct {
	Model string `yaml:"model"`
}

type OpenAIConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type OllamaConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

type SynthesisConfig struct {
	MaxWindowRunes  int    `yaml:"max_window_runes"`
	SummaryMaxRunes int    `yaml:"summary_max_runes"`
	FallbackTitle   string `yaml:"fallback_title"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type PathsConfig struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Archived string `yaml:"archived"`
	Temp     string `yaml:"temp"`
}

type OutputConfig struct {
	SkipSubtitles bool `yaml:"skip_subtitles"`
	ExportDocx    bool `yaml:"export_docx"`
}

type WatchConfig struct {
	Patterns    []string      `yaml:"patterns"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

type LockConfig struct {
	Backend    string        `yaml:"backend"`
	RedisAddr  string        `yaml:"redis_addr"`
	RedisDB    int           `yaml:"redis_db"`
	TTL        time.Duration `yaml:"ttl"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type Secrets struct {
	GeminiAPIKeys []string
	OpenAIAPIKey  string
	RedisPassword string
}

// Load reads the YAML file at path, overlays secrets from the environment (and a .env file
// when present) and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	_ = godotenv.Load()
	cfg.Secrets = secretsFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func secretsFromEnv() Secrets {
	var keys []string
	for _, k := range strings.Split(os.Getenv("GEMINI_API_KEYS"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		if k := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); k != "" {
			keys = append(keys, k)
		}
	}
	return Secrets{
		GeminiAPIKeys: keys,
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}
}

func (c *Config) Validate() error {
	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output is required")
	}

	switch c.Transcriber.Backend {
	case "":
		c.Transcriber.Backend = "whisper"
	case "whisper", "gcp_speech":
	default:
		return fmt.Errorf("transcriber.backend %q is not supported", c.Transcriber.Backend)
	}
	if c.Transcriber.Backend == "whisper" {
		if c.Whisper.BinaryPath == "" {
			return fmt.Errorf("whisper.binary_path is required")
		}
		if c.Whisper.ModelDir == "" {
			return fmt.Errorf("whisper.model_dir is required")
		}
	}

	switch c.Completion.Backend {
	case "":
		c.Completion.Backend = "gemini"
	case "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("completion.backend %q is not supported", c.Completion.Backend)
	}

	switch c.Lock.Backend {
	case "":
		c.Lock.Backend = "file"
	case "file":
	case "redis":
		if c.Lock.RedisAddr == "" {
			return fmt.Errorf("lock.redis_addr is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("lock.backend %q is not supported", c.Lock.Backend)
	}

	if c.Whisper.DefaultModel == "" {
		c.Whisper.DefaultModel = "base"
	}
	if !ValidModelSize(c.Whisper.DefaultModel) {
		return fmt.Errorf("whisper.default_model %q must be one of %s", c.Whisper.DefaultModel, strings.Join(ModelSizes, ", "))
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "zh"
	}
	if c.Whisper.Prompt == "" {
		c.Whisper.Prompt = "以下是普通话的句子。"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 8
	}
	if c.Speech.SegmentSeconds == 0 {
		c.Speech.SegmentSeconds = 10
	}
	if c.Speech.SampleRateHertz == 0 {
		c.Speech.SampleRateHertz = 16000
	}
	if c.Transcriber.Timeout == 0 {
		c.Transcriber.Timeout = 60 * time.Minute
	}

	if c.Acquirer.FFmpegPath == "" {
		c.Acquirer.FFmpegPath = "ffmpeg"
	}
	if c.Acquirer.YtDlpPath == "" {
		c.Acquirer.YtDlpPath = "yt-dlp"
	}
	if c.Acquirer.Timeout == 0 {
		c.Acquirer.Timeout = 300 * time.Second
	}
	if c.Acquirer.MaxDuration == 0 {
		c.Acquirer.MaxDuration = 2 * time.Hour
	}
	if len(c.Acquirer.Formats) == 0 {
		c.Acquirer.Formats = []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".m4v", ".flv", ".mp3", ".wav", ".m4a", ".flac"}
	}

	if c.Completion.Timeout == 0 {
		c.Completion.Timeout = 180 * time.Second
	}
	if c.Completion.Temperature == 0 {
		c.Completion.Temperature = 1
	}
	if c.Completion.SystemPrompt == "" {
		c.Completion.SystemPrompt = "你是一位专业的历史学者和教育专家，擅长将历史视频的字幕内容转化为高质量的学习笔记。"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-5"
	}
	if c.Ollama.Host == "" {
		c.Ollama.Host = "http://localhost:11434"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "qwen2.5:14b"
	}

	if c.Synthesis.MaxWindowRunes == 0 {
		c.Synthesis.MaxWindowRunes = 6000
	}
	if c.Synthesis.SummaryMaxRunes == 0 {
		c.Synthesis.SummaryMaxRunes = 600
	}
	if c.Synthesis.FallbackTitle == "" {
		c.Synthesis.FallbackTitle = DefaultTitle
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 4
	}
	if c.Retry.InitialBackoff == 0 {
		c.Retry.InitialBackoff = time.Second
	}
	if c.Retry.MaxBackoff == 0 {
		c.Retry.MaxBackoff = 10 * time.Second
	}

	if c.Paths.Input == "" {
		c.Paths.Input = "data/input"
	}
	if c.Paths.Archived == "" {
		c.Paths.Archived = "data/archived"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "data/temp"
	}

	if len(c.Watch.Patterns) == 0 {
		c.Watch.Patterns = []string{"*.{mp4,mov,avi,mkv,webm,m4v,flv}"}
	}
	if c.Watch.SettleDelay == 0 {
		c.Watch.SettleDelay = 500 * time.Millisecond
	}

	if c.Lock.TTL == 0 {
		c.Lock.TTL = 2 * time.Hour
	}
	if c.Lock.StaleAfter == 0 {
		c.Lock.StaleAfter = 6 * time.Hour
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}

	return nil
}

// ModelSizes lists the accepted transcription model sizes.
var ModelSizes = []string{"tiny", "base", "small", "medium", "large"}

func ValidModelSize(size string) bool {
	for _, s := range ModelSizes {
		if s == size {
			return true
		}
	}
	return false
}
