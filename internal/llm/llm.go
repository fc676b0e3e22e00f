// Package llm wraps the text-completion backends used to phrase questionnaire
// steps and generate training content. Every call is a single blocking
// request; nothing here retries.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Completer performs one completion call: a prompt in, generated text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a plain function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrEmptyCompletion is reported when a backend answers with nothing but
// whitespace.
var ErrEmptyCompletion = errors.New("completion returned no text")

// GenerationError reports a failed completion call. Stage names what was
// being generated ("question for name", "scenario", ...). The failed action
// is safe to trigger again.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Generate runs one completion for stage and trims the result. Any failure,
// including an all-whitespace reply, comes back as a *GenerationError.
func Generate(ctx context.Context, c Completer, stage, prompt string) (string, error) {
	text, err := c.Complete(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Stage: stage, Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &GenerationError{Stage: stage, Err: ErrEmptyCompletion}
	}
	return text, nil
}
