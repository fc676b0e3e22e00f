package llm

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/kalambet/complytrain/internal/ollama"
)

// DefaultOllamaModel is used when no local model is configured.
const DefaultOllamaModel = "llama3.2"

// OllamaCompleter adapts the local Ollama client to the Completer interface.
type OllamaCompleter struct {
	client *ollama.Client
	model  string
	logger *zap.Logger
}

// NewOllamaCompleter creates a completer backed by an Ollama server at baseURL.
func NewOllamaCompleter(baseURL, model string, logger *zap.Logger) *OllamaCompleter {
	if model == "" {
		model = DefaultOllamaModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaCompleter{
		client: ollama.New(baseURL),
		model:  model,
		logger: logger,
	}
}

// Model returns the configured model name.
func (c *OllamaCompleter) Model() string {
	return c.model
}

func (c *OllamaCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	text, err := c.client.Chat(ctx, c.model, []ollama.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		c.logger.Error("Ollama completion failed", zap.String("model", c.model), zap.Error(err))
		return "", err
	}
	c.logger.Debug("Ollama completion received", zap.String("model", c.model), zap.Int("length", len(text)))
	return text, nil
}

// EnsureReady checks the local server and pulls the model if needed.
func (c *OllamaCompleter) EnsureReady(ctx context.Context, w io.Writer) error {
	return ollama.EnsureReady(ctx, c.client, c.model, w)
}
