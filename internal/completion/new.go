package completion

import (
	"fmt"
	"net/http"

	"github.com/nguyentantai21042004/caption-notes/internal/config"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
)

// New builds the completer selected by cfg.Completion.Backend.
func New(cfg *config.Config, log logger.Logger) (Completer, error) {
	httpClient := &http.Client{Timeout: cfg.Completion.Timeout}

	switch cfg.Completion.Backend {
	case "gemini":
		return NewGemini(cfg.Secrets.GeminiAPIKeys, cfg.Gemini.Model, cfg.Completion, log)
	case "openai":
		return NewOpenAI(cfg.Secrets.OpenAIAPIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.Completion, httpClient)
	case "ollama":
		return NewOllama(cfg.Ollama.Host, cfg.Ollama.Model, cfg.Completion, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown completion backend %q", cfg.Completion.Backend)
	}
}
