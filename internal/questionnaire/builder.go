package questionnaire

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kalambet/complytrain/internal/llm"
	"github.com/kalambet/complytrain/internal/profile"
)

// View is what a front end needs to draw the current step.
type View struct {
	Step     int              `json:"step"`
	Total    int              `json:"total"`
	Key      string           `json:"key,omitempty"`
	Question string           `json:"question,omitempty"`
	Label    string           `json:"label,omitempty"`
	Complete bool             `json:"complete"`
	Profile  *profile.Profile `json:"profile,omitempty"`
}

// Builder runs the questionnaire against a completion backend. It holds no
// session state of its own; every call takes and returns a State.
type Builder struct {
	machine   Machine
	completer llm.Completer
	logger    *zap.Logger
}

// NewBuilder creates a Builder asking questions (the profile fields by default).
func NewBuilder(c llm.Completer, logger *zap.Logger, questions ...string) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		machine:   NewMachine(questions...),
		completer: c,
		logger:    logger,
	}
}

// Machine returns the underlying transition table.
func (b *Builder) Machine() Machine {
	return b.machine
}

// Start returns the initial state of a fresh session.
func (b *Builder) Start() State {
	return State{Answers: profile.New()}
}

// Render prepares the view for s. If the current step has no cached question
// it makes exactly one completion call and caches the result; redrawing the
// same step afterwards makes no call at all.
//
// On a generation failure s is returned unchanged together with a
// *llm.GenerationError, so the same step is retried on the next Render.
func (b *Builder) Render(ctx context.Context, s State) (State, View, error) {
	if b.machine.Complete(s) {
		answers := s.Answers.Clone()
		return s, View{
			Step:     s.Step,
			Total:    b.machine.Len(),
			Complete: true,
			Profile:  &answers,
		}, nil
	}

	key, _ := b.machine.Current(s)
	if b.machine.NeedsQuestion(s) {
		prompt, err := BuildPrompt(key, s.Answers)
		if err != nil {
			return s, View{}, &llm.GenerationError{Stage: "question for " + key, Err: err}
		}

		b.logger.Debug("Generating question",
			zap.String("key", key),
			zap.Int("step", s.Step),
			zap.Int("prompt_length", len(prompt)),
		)
		text, err := llm.Generate(ctx, b.completer, "question for "+key, prompt)
		if err != nil {
			b.logger.Warn("Question generation failed", zap.String("key", key), zap.Error(err))
			return s, View{}, err
		}

		s, _ = b.machine.Transition(s, QuestionReady{Key: key, Text: text})
	}

	return s, View{
		Step:     s.Step,
		Total:    b.machine.Len(),
		Key:      key,
		Question: s.CachedText,
		Label:    InputLabel(key),
	}, nil
}

// Submit records answer for the current step and advances. Blank answers
// leave the state untouched and return ErrEmptyAnswer.
func (b *Builder) Submit(s State, answer string) (State, error) {
	next, err := b.machine.Transition(s, Submit{Answer: answer})
	if err != nil {
		if !errors.Is(err, ErrEmptyAnswer) {
			b.logger.Warn("Answer rejected", zap.Int("step", s.Step), zap.Error(err))
		}
		return s, err
	}

	b.logger.Info("Answer recorded",
		zap.Int("step", next.Step),
		zap.Int("total", b.machine.Len()),
	)
	return next, nil
}

// Export renders the finished profile as the downloadable JSON document.
func (b *Builder) Export(s State) ([]byte, error) {
	if !b.machine.Complete(s) {
		return nil, ErrIncomplete
	}
	return profile.Encode(s.Answers)
}
