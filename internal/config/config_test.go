package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Whisper: WhisperConfig{
					ModelDir:   "models",
					BinaryPath: "./whisper",
					Language:   "zh",
				},
				Paths: PathsConfig{
					Output: "data/output",
				},
			},
			wantErr: false,
		},
		{
			name: "missing model dir",
			config: Config{
				Whisper: WhisperConfig{
					BinaryPath: "./whisper",
				},
				Paths: PathsConfig{
					Output: "data/output",
				},
			},
			wantErr: true,
		},
		{
			name: "speech backend needs no whisper binary",
			config: Config{
				Transcriber: TranscriberConfig{Backend: "gcp_speech"},
				Paths:       PathsConfig{Output: "data/output"},
			},
			wantErr: false,
		},
		{
			name: "missing paths",
			config: Config{
				Whisper: WhisperConfig{
					ModelDir:   "models",
					BinaryPath: "./whisper",
				},
				Paths: PathsConfig{},
			},
			wantErr: true,
		},
		{
			name: "unknown completion backend",
			config: Config{
				Whisper:    WhisperConfig{ModelDir: "models", BinaryPath: "./whisper"},
				Completion: CompletionConfig{Backend: "carrier-pigeon"},
				Paths:      PathsConfig{Output: "out"},
			},
			wantErr: true,
		},
		{
			name: "bad model size",
			config: Config{
				Whisper: WhisperConfig{ModelDir: "models", BinaryPath: "./whisper", DefaultModel: "huge"},
				Paths:   PathsConfig{Output: "out"},
			},
			wantErr: true,
		},
		{
			name: "redis lock without address",
			config: Config{
				Whisper: WhisperConfig{ModelDir: "models", BinaryPath: "./whisper"},
				Lock:    LockConfig{Backend: "redis"},
				Paths:   PathsConfig{Output: "out"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{
		Whisper: WhisperConfig{ModelDir: "models", BinaryPath: "./whisper"},
		Paths:   PathsConfig{Output: "out"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Whisper.DefaultModel != "base" {
		t.Errorf("DefaultModel = %v, want base", cfg.Whisper.DefaultModel)
	}
	if cfg.Completion.Backend != "gemini" {
		t.Errorf("Completion.Backend = %v, want gemini", cfg.Completion.Backend)
	}
	if cfg.Synthesis.FallbackTitle != DefaultTitle {
		t.Errorf("FallbackTitle = %v, want %v", cfg.Synthesis.FallbackTitle, DefaultTitle)
	}
	if cfg.Acquirer.Timeout != 300*time.Second {
		t.Errorf("Acquirer.Timeout = %v, want 300s", cfg.Acquirer.Timeout)
	}
	if cfg.Lock.Backend != "file" {
		t.Errorf("Lock.Backend = %v, want file", cfg.Lock.Backend)
	}
	if cfg.Performance.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %v, want 2", cfg.Performance.MaxConcurrent)
	}
}

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	content := `
whisper:
  model_dir: "models"
  binary_path: "./whisper"
  language: "zh"
  prompt: "test"

completion:
  backend: "openai"
  timeout: "45s"

synthesis:
  max_window_runes: 3000

paths:
  input: "data/input"
  output: "data/output"

logging:
  level: "info"
  format: "text"
`

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GEMINI_API_KEYS", "k1, k2,,")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	// Test loading
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Whisper.ModelDir != "models" {
		t.Errorf("ModelDir = %v, want %v", cfg.Whisper.ModelDir, "models")
	}
	if cfg.Paths.Input != "data/input" {
		t.Errorf("Input = %v, want %v", cfg.Paths.Input, "data/input")
	}
	if cfg.Completion.Timeout != 45*time.Second {
		t.Errorf("Completion.Timeout = %v, want 45s", cfg.Completion.Timeout)
	}
	if cfg.Synthesis.MaxWindowRunes != 3000 {
		t.Errorf("MaxWindowRunes = %v, want 3000", cfg.Synthesis.MaxWindowRunes)
	}
	if len(cfg.Secrets.GeminiAPIKeys) != 2 || cfg.Secrets.GeminiAPIKeys[1] != "k2" {
		t.Errorf("GeminiAPIKeys = %v, want [k1 k2]", cfg.Secrets.GeminiAPIKeys)
	}
	if cfg.Secrets.OpenAIAPIKey != "sk-test" {
		t.Errorf("OpenAIAPIKey = %v, want sk-test", cfg.Secrets.OpenAIAPIKey)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("paths: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should return error for malformed YAML")
	}
}
