package llm

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Backend names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Options selects and configures a completion backend.
type Options struct {
	Provider      string
	APIKey        string
	OpenAIModel   string
	OpenAIBaseURL string
	OllamaBaseURL string
	OllamaModel   string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
}

// New returns the Completer for opts.Provider.
func New(ctx context.Context, opts Options, logger *zap.Logger) (Completer, error) {
	switch strings.ToLower(opts.Provider) {
	case "", ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAICompleter(opts.APIKey, opts.OpenAIModel, opts.OpenAIBaseURL, logger), nil
	case ProviderOllama:
		return NewOllamaCompleter(opts.OllamaBaseURL, opts.OllamaModel, logger), nil
	case ProviderGemini:
		if opts.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return NewGeminiCompleter(ctx, opts.GeminiAPIKey, opts.GeminiModel, opts.GeminiBaseURL, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want %q, %q or %q)", opts.Provider, ProviderOpenAI, ProviderOllama, ProviderGemini)
	}
}

type modeler interface {
	Model() string
}

// ModelName returns the model c sends prompts to, or "" when the backend
// does not report one.
func ModelName(c Completer) string {
	if m, ok := c.(modeler); ok {
		return m.Model()
	}
	return ""
}

type readier interface {
	EnsureReady(ctx context.Context, w io.Writer) error
}

// EnsureReady prepares backends that need it (a local Ollama model must be
// pulled before first use). Hosted backends need nothing.
func EnsureReady(ctx context.Context, c Completer, w io.Writer) error {
	if r, ok := c.(readier); ok {
		return r.EnsureReady(ctx, w)
	}
	return nil
}
