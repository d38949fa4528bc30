package completion

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/caption-notes/internal/config"
	"github.com/nguyentantai21042004/caption-notes/internal/logger"
)

type implGemini struct {
	apiKeys     []string
	currentKey  int
	mu          sync.Mutex
	model       string
	system      string
	temperature float32
	logger      logger.Logger
}

// NewGemini creates a Completer that rotates through the supplied Gemini API keys.
func NewGemini(apiKeys []string, model string, cfg config.CompletionConfig, log logger.Logger) (Completer, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("gemini backend needs GEMINI_API_KEYS")
	}
	return &implGemini{
		apiKeys:     apiKeys,
		model:       model,
		system:      cfg.SystemPrompt,
		temperature: float32(cfg.Temperature),
		logger:      log,
	}, nil
}

func (g *implGemini) Model() string   { return g.model }
func (g *implGemini) Backend() string { return "gemini" }

// Complete sends the prompt to Gemini and returns the generated text.
// Rotates API keys on 429 / quota errors.
func (g *implGemini) Complete(ctx context.Context, prompt, background string) (string, error) {
	text := prompt
	if strings.TrimSpace(background) != "" {
		text = "前文摘要：\n" + background + "\n\n" + prompt
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if g.system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(g.system, genai.RoleUser)
	}

	attempts := len(g.apiKeys)
	var lastErr error

	for range attempts {
		idx, key := g.key()

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			g.rotateKey(idx)
			continue
		}

		result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(text), genCfg)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if isRateLimited(err) {
				g.logger.Warn(ctx, "Gemini key %d rate limited, rotating...", idx+1)
				g.rotateKey(idx)
				lastErr = err
				continue
			}
			return "", unavailable("gemini", fmt.Errorf("generate content: %w", err))
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var out strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				if part != nil && part.Text != "" {
					out.WriteString(part.Text)
				}
			}
			if out.Len() > 0 {
				return out.String(), nil
			}
		}

		return "", unavailable("gemini", fmt.Errorf("empty response from Gemini"))
	}

	return "", unavailable("gemini", fmt.Errorf("all API keys exhausted: %w", lastErr))
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func (g *implGemini) key() (int, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentKey, g.apiKeys[g.currentKey]
}

// rotateKey advances past idx unless another caller already did.
func (g *implGemini) rotateKey(idx int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentKey == idx {
		g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
	}
}
