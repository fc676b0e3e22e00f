// Package questionnaire implements the step-by-step profile interview: one
// LLM-phrased question per profile field, one free-text answer per step.
//
// The state machine is pure. Callers own the State value and pass it into
// every transition; nothing is kept in package-level variables.
package questionnaire

import (
	"errors"
	"strings"

	"github.com/kalambet/complytrain/internal/profile"
)

var (
	// ErrEmptyAnswer is returned when a submitted answer is blank after trimming.
	ErrEmptyAnswer = errors.New("answer must not be empty")

	// ErrComplete is returned when an answer arrives after the last step.
	ErrComplete = errors.New("questionnaire is already complete")

	// ErrIncomplete is returned when the profile is exported before the last step.
	ErrIncomplete = errors.New("questionnaire is not complete")
)

// State is one session's position in the questionnaire.
//
// CachedText is only valid while CachedKey equals the key at Step; any
// mismatch means the question has to be generated again.
type State struct {
	Step       int
	CachedKey  string
	CachedText string
	Answers    profile.Profile
}

// Event is an input to Machine.Transition.
type Event interface {
	event()
}

// Submit carries the user's answer to the current question.
type Submit struct {
	Answer string
}

// QuestionReady carries generated question text for Key.
type QuestionReady struct {
	Key  string
	Text string
}

func (Submit) event()        {}
func (QuestionReady) event() {}

// Machine is the questionnaire's transition table: an ordered list of
// question keys. Step == len(questions) is the terminal state.
type Machine struct {
	questions []string
}

// NewMachine returns a machine over questions, or over the profile fields
// when none are given.
func NewMachine(questions ...string) Machine {
	if len(questions) == 0 {
		questions = profile.Keys()
	}
	qs := make([]string, len(questions))
	copy(qs, questions)
	return Machine{questions: qs}
}

// Len returns the number of questions.
func (m Machine) Len() int {
	return len(m.questions)
}

// Complete reports whether every question has been answered.
func (m Machine) Complete(s State) bool {
	return s.Step >= len(m.questions)
}

// Current returns the key being asked at s, or false in the terminal state.
func (m Machine) Current(s State) (string, bool) {
	if s.Step < 0 || m.Complete(s) {
		return "", false
	}
	return m.questions[s.Step], true
}

// NeedsQuestion reports whether the current step has no valid cached question.
func (m Machine) NeedsQuestion(s State) bool {
	key, ok := m.Current(s)
	return ok && s.CachedKey != key
}

// Transition applies ev to s and returns the resulting state. s itself is
// never modified. When an error is returned the state is unchanged.
func (m Machine) Transition(s State, ev Event) (State, error) {
	switch ev := ev.(type) {
	case Submit:
		key, ok := m.Current(s)
		if !ok {
			return s, ErrComplete
		}
		answer := strings.TrimSpace(ev.Answer)
		if answer == "" {
			return s, ErrEmptyAnswer
		}
		next := s
		next.Answers = s.Answers.Clone()
		next.Answers.Set(key, answer)
		next.CachedKey = ""
		next.CachedText = ""
		next.Step++
		return next, nil

	case QuestionReady:
		key, ok := m.Current(s)
		if !ok || key != ev.Key {
			// Stale result for a step we have already left.
			return s, nil
		}
		next := s
		next.CachedKey = ev.Key
		next.CachedText = cleanQuestion(ev.Text)
		return next, nil
	}
	return s, nil
}

// cleanQuestion strips whitespace and the quotes models like to wrap
// questions in.
func cleanQuestion(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"`)
	return strings.TrimSpace(text)
}
