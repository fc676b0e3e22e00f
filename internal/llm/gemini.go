package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no Gemini model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiCompleter sends each prompt as a single user turn to the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiCompleter creates a completer for model. baseURL may be empty to
// use the public endpoint.
func NewGeminiCompleter(ctx context.Context, apiKey, model, baseURL string, logger *zap.Logger) (*GeminiCompleter, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, model: model, logger: logger}, nil
}

// Model returns the configured model name.
func (c *GeminiCompleter) Model() string {
	return c.model
}

func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: prompt}},
		},
	}, nil)
	if err != nil {
		c.logger.Error("Gemini generation failed", zap.String("model", c.model), zap.Error(err))
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := geminiText(resp)
	if text == "" {
		// Blocked prompts come back with no candidates.
		return "", fmt.Errorf("generate content: no text in response")
	}
	c.logger.Debug("Gemini response received", zap.String("model", c.model), zap.Int("length", len(text)))
	return text, nil
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
