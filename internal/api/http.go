// Package api exposes the questionnaire and training flows over HTTP and MCP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kalambet/complytrain/internal/course"
	"github.com/kalambet/complytrain/internal/llm"
	"github.com/kalambet/complytrain/internal/profile"
	"github.com/kalambet/complytrain/internal/questionnaire"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds what the HTTP and MCP surfaces need.
type Deps struct {
	Builder     *questionnaire.Builder
	Generator   *course.Generator
	ProfilePath string
	Logger      *zap.Logger
}

// session is the one questionnaire in progress.
type session struct {
	mu    sync.Mutex
	state questionnaire.State
}

type handler struct {
	deps    Deps
	session *session
	logger  *zap.Logger
}

// NewHandler returns the HTTP surface. A non-empty token puts every route
// except /health behind bearer authentication.
func NewHandler(deps Deps, token string) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{
		deps:    deps,
		session: &session{state: deps.Builder.Start()},
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if token != "" {
			r.Use(BearerAuth(token, logger))
		}
		r.Get("/questionnaire", h.handleQuestionnaire)
		r.Post("/questionnaire/answer", h.handleAnswer)
		r.Get("/questionnaire/profile.json", h.handleDownload)
		r.Post("/questionnaire/reset", h.handleReset)
		r.Get("/topics", handleTopics)
		r.Post("/training", h.handleTraining)
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// render produces the current view, generating the question if needed.
// Caller holds the session lock.
func (h *handler) render(w http.ResponseWriter, r *http.Request) {
	next, view, err := h.deps.Builder.Render(r.Context(), h.session.state)
	h.session.state = next
	if err != nil {
		h.logger.Error("Question generation failed", zap.Error(err))
		httpError(w, http.StatusBadGateway, "generation_error", "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) handleQuestionnaire(w http.ResponseWriter, r *http.Request) {
	h.session.mu.Lock()
	defer h.session.mu.Unlock()
	h.render(w, r)
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (h *handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}

	h.session.mu.Lock()
	defer h.session.mu.Unlock()

	next, err := h.deps.Builder.Submit(h.session.state, req.Answer)
	switch {
	case errors.Is(err, questionnaire.ErrEmptyAnswer):
		httpError(w, http.StatusBadRequest, "empty_answer", "%v", err)
		return
	case errors.Is(err, questionnaire.ErrComplete):
		httpError(w, http.StatusConflict, "questionnaire_complete", "%v", err)
		return
	case err != nil:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
		return
	}
	h.session.state = next
	h.render(w, r)
}

func (h *handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	h.session.mu.Lock()
	data, err := h.deps.Builder.Export(h.session.state)
	h.session.mu.Unlock()

	if errors.Is(err, questionnaire.ErrIncomplete) {
		httpError(w, http.StatusConflict, "questionnaire_incomplete", "%v", err)
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", profile.DefaultFileName))
	w.Write(data)
}

func (h *handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.session.mu.Lock()
	h.session.state = h.deps.Builder.Start()
	h.session.mu.Unlock()

	h.logger.Info("Questionnaire reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func handleTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"topics": course.Topics()})
}

type trainingRequest struct {
	Topic string `json:"topic"`
}

func (h *handler) handleTraining(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req trainingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}

	topic, ok := course.SelectTopic(req.Topic)
	if !ok {
		httpError(w, http.StatusBadRequest, "unknown_topic", "%v: %q", course.ErrUnknownTopic, req.Topic)
		return
	}

	p, err := profile.Load(h.deps.ProfilePath)
	if errors.Is(err, profile.ErrMissingProfile) {
		httpError(w, http.StatusNotFound, "missing_profile", "%v", err)
		return
	}
	if err != nil {
		httpError(w, http.StatusUnprocessableEntity, "invalid_profile", "%v", err)
		return
	}

	artifact, err := h.deps.Generator.Generate(r.Context(), topic, p, nil)
	if err != nil {
		var genErr *llm.GenerationError
		if errors.As(err, &genErr) {
			httpError(w, http.StatusBadGateway, "generation_error", "%v", err)
			return
		}
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
		return
	}

	writeJSON(w, http.StatusOK, artifact)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
