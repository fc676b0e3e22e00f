package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAICompleter sends each prompt as a single user message to an
// OpenAI-compatible chat completion endpoint.
type OpenAICompleter struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAICompleter creates a completer for model. baseURL may be empty to
// use the SDK default; set it to target a compatible gateway. The SDK's
// built-in retries are switched off so a failure surfaces on the first try.
func NewOpenAICompleter(apiKey, model, baseURL string, logger *zap.Logger) *OpenAICompleter {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAICompleter{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

// Model returns the configured model name.
func (c *OpenAICompleter) Model() string {
	return c.model
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		c.logger.Error("OpenAI completion failed", zap.String("model", c.model), zap.Error(err))
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices in response")
	}

	text := resp.Choices[0].Message.Content
	c.logger.Debug("OpenAI completion received",
		zap.String("model", c.model),
		zap.Int("length", len(text)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)
	return text, nil
}
