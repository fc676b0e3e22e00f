package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/kalambet/complytrain/internal/config"
	"github.com/kalambet/complytrain/internal/llm"
	"github.com/kalambet/complytrain/internal/logging"
)

// Seams for tests.
var (
	loadConfig        = config.Load
	loadPartialConfig = config.LoadPartial
	newCompleter      = func(cfg config.Config, logger *zap.Logger) (llm.Completer, error) {
		return llm.New(context.Background(), llm.Options{
			Provider:      cfg.LLM.Provider,
			APIKey:        cfg.OpenAI.APIKey,
			OpenAIModel:   cfg.OpenAI.Model,
			OpenAIBaseURL: cfg.OpenAI.BaseURL,
			OllamaBaseURL: cfg.Ollama.BaseURL,
			OllamaModel:   cfg.Ollama.Model,
			GeminiAPIKey:  cfg.Gemini.APIKey,
			GeminiModel:   cfg.Gemini.Model,
			GeminiBaseURL: cfg.Gemini.BaseURL,
		}, logger)
	}
)

// app bundles what every command needs after startup.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	completer llm.Completer
}

// newApp loads config and builds the logger and completer. Interactive
// commands keep the console quiet below warn unless logging to a file.
func newApp(interactive bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if interactive && cfg.Log.File == "" && logging.ParseLevel(level) < zap.WarnLevel {
		level = "warn"
	}
	logger, err := logging.New(level, cfg.Log.File)
	if err != nil {
		return nil, err
	}

	c, err := newCompleter(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, completer: c}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

var errInputClosed = errors.New("input closed")

// readLine reads one line of user input without its line ending.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errInputClosed
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// confirm asks a yes/no question; an empty answer takes def.
func confirm(r *bufio.Reader, w io.Writer, question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	io.WriteString(w, question+" "+hint+" ")
	line, err := readLine(r)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
