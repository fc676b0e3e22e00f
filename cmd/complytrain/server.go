package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kalambet/complytrain/internal/api"
	"github.com/kalambet/complytrain/internal/course"
	"github.com/kalambet/complytrain/internal/llm"
	"github.com/kalambet/complytrain/internal/ollama"
	"github.com/kalambet/complytrain/internal/questionnaire"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the questionnaire and training over HTTP (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve training tools over MCP (stdio transport)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show complytrain status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func newDeps(a *app) api.Deps {
	return api.Deps{
		Builder:     questionnaire.NewBuilder(a.completer, a.logger),
		Generator:   course.NewGenerator(a.completer, a.logger),
		ProfilePath: a.cfg.Profile.Path,
		Logger:      a.logger,
	}
}

func runServer(parent context.Context) error {
	fmt.Fprintf(stderr, "complytrain version %s\n", version)

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Refuse to start twice on the same port.
	probe := &apiClient{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", a.cfg.Server.Port),
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}
	if probe.healthy(ctx) {
		printWarning("complytrain is already running on port %d", a.cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", a.cfg.Server.Port)
	}

	if err := llm.EnsureReady(ctx, a.completer, stderr); err != nil {
		return err
	}

	if a.cfg.Server.Token == "" {
		a.logger.Info("HTTP surface running without bearer auth")
	}
	handler := api.NewHandler(newDeps(a), a.cfg.Server.Token)

	addr := fmt.Sprintf("127.0.0.1:%d", a.cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("provider", a.cfg.LLM.Provider),
			zap.String("model", llm.ModelName(a.completer)),
		)
		printSuccess("complytrain listening on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCP(parent context.Context) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// stdout carries the protocol; readiness output goes to stderr.
	if err := llm.EnsureReady(ctx, a.completer, stderr); err != nil {
		return err
	}

	mcpSrv := api.NewMCPServer(newDeps(a), version)
	a.logger.Info("MCP server started (stdio transport)", zap.String("model", llm.ModelName(a.completer)))
	if err := server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("MCP stdio server error", zap.Error(err))
		return err
	}
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := loadPartialConfig()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	printStatus("Provider", "%s", cfg.LLM.Provider)
	switch cfg.LLM.Provider {
	case llm.ProviderOllama:
		printStatus("Model", "%s", cfg.Ollama.Model)
		oc := ollama.New(cfg.Ollama.BaseURL)
		switch {
		case !oc.IsRunning(ctx):
			printStatus("Ollama", "not running at %s", cfg.Ollama.BaseURL)
		case !oc.HasModel(ctx, cfg.Ollama.Model):
			printStatus("Ollama", "running at %s, model %s not pulled", cfg.Ollama.BaseURL, cfg.Ollama.Model)
		default:
			printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
		}
	case llm.ProviderGemini:
		printStatus("Model", "%s", cfg.Gemini.Model)
		if cfg.Gemini.APIKey == "" {
			printStatus("API key", "missing")
		} else {
			printStatus("API key", "set")
		}
	default:
		printStatus("Model", "%s", cfg.OpenAI.Model)
		if cfg.OpenAI.APIKey == "" {
			printStatus("API key", "missing")
		} else {
			printStatus("API key", "set")
		}
	}

	if _, err := os.Stat(cfg.Profile.Path); err == nil {
		printStatus("Profile", "%s", cfg.Profile.Path)
	} else {
		printStatus("Profile", "not built yet (%s)", cfg.Profile.Path)
	}

	client, err := newAPIClient()
	if err == nil && client.healthy(ctx) {
		printStatus("Server", "running on port %d", cfg.Server.Port)
	} else {
		printStatus("Server", "stopped")
	}
	return nil
}
