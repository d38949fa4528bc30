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

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type implOpenAI struct {
	apiKey      string
	baseURL     string
	model       string
	system      string
	temperature float64
	httpClient  *http.Client
}

// NewOpenAI creates a Completer backed by the OpenAI chat completions endpoint.
func NewOpenAI(apiKey, baseURL, model string, cfg config.CompletionConfig, httpClient *http.Client) (Completer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai backend needs OPENAI_API_KEY")
	}
	return &implOpenAI{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		system:      cfg.SystemPrompt,
		temperature: cfg.Temperature,
		httpClient:  httpClient,
	}, nil
}

func (o *implOpenAI) Model() string   { return o.model }
func (o *implOpenAI) Backend() string { return "openai" }

func (o *implOpenAI) Complete(ctx context.Context, prompt, background string) (string, error) {
	body, err := json.Marshal(openAIRequest{
		Model:       o.model,
		Messages:    buildMessages(o.system, prompt, background),
		Temperature: o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", unavailable("openai", fmt.Errorf("chat request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", unavailable("openai", fmt.Errorf("read chat response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError("openai", resp.StatusCode, string(raw))
	}

	var out openAIResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", unavailable("openai", fmt.Errorf("decode chat response: %w", err))
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", unavailable("openai", fmt.Errorf("empty response from OpenAI"))
	}
	return out.Choices[0].Message.Content, nil
}

func buildMessages(system, prompt, background string) []chatMessage {
	msgs := make([]chatMessage, 0, 3)
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	if strings.TrimSpace(background) != "" {
		msgs = append(msgs, chatMessage{Role: "user", Content: "前文摘要：\n" + background})
	}
	return append(msgs, chatMessage{Role: "user", Content: prompt})
}
