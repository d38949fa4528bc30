package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nguyentantai21042004/caption-notes/internal/config"
)

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

type implOllama struct {
	host        string
	model       string
	system      string
	temperature float64
	httpClient  *http.Client
}

// NewOllama creates a Completer backed by a local Ollama server.
func NewOllama(host, model string, cfg config.CompletionConfig, httpClient *http.Client) Completer {
	return &implOllama{
		host:        strings.TrimRight(host, "/"),
		model:       model,
		system:      cfg.SystemPrompt,
		temperature: cfg.Temperature,
		httpClient:  httpClient,
	}
}

func (o *implOllama) Model() string   { return o.model }
func (o *implOllama) Backend() string { return "ollama" }

func (o *implOllama) Complete(ctx context.Context, prompt, background string) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:    o.model,
		Messages: buildMessages(o.system, prompt, background),
		Stream:   false,
		Options:  map[string]any{"temperature": o.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", unavailable("ollama", fmt.Errorf("ollama chat request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", unavailable("ollama", fmt.Errorf("read ollama response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError("ollama", resp.StatusCode, string(raw))
	}

	var out ollamaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", unavailable("ollama", fmt.Errorf("decode ollama response: %w", err))
	}
	if strings.TrimSpace(out.Message.Content) == "" {
		return "", unavailable("ollama", fmt.Errorf("ollama returned empty message"))
	}
	return out.Message.Content, nil
}
