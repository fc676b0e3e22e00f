package course

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kalambet/complytrain/internal/llm"
	"github.com/kalambet/complytrain/internal/profile"
)

// Stage identifies one of the three generation steps.
type Stage string

const (
	StageIntro    Stage = "intro"
	StageScenario Stage = "scenario"
	StageQuestion Stage = "question"
)

// Artifact is one generated training unit. It is rendered, never stored.
type Artifact struct {
	ID       string `json:"id"`
	Topic    Topic  `json:"topic"`
	Intro    string `json:"intro"`
	Scenario string `json:"scenario"`
	Question string `json:"question"`
}

// RenderFunc receives each stage's text as soon as it is generated.
type RenderFunc func(stage Stage, text string)

// Generator turns a topic and a profile into training content. Each method
// makes exactly one completion call.
type Generator struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewGenerator creates a Generator using c for completions.
func NewGenerator(c llm.Completer, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{completer: c, logger: logger}
}

// Intro generates the two-paragraph introduction to topic.
func (g *Generator) Intro(ctx context.Context, topic Topic) (string, error) {
	return llm.Generate(ctx, g.completer, string(StageIntro), IntroPrompt(topic))
}

// Scenario generates a dilemma for topic set in the user's workplace.
func (g *Generator) Scenario(ctx context.Context, topic Topic, p profile.Profile) (string, error) {
	prompt, err := ScenarioPrompt(topic, p)
	if err != nil {
		return "", err
	}
	return llm.Generate(ctx, g.completer, string(StageScenario), prompt)
}

// Question generates the A/B/C question for scenario.
func (g *Generator) Question(ctx context.Context, scenario string, topic Topic) (string, error) {
	return llm.Generate(ctx, g.completer, string(StageQuestion), QuestionPrompt(scenario, topic))
}

// Generate runs intro, scenario and question in that order, calling render
// after each one. It stops at the first failure; the returned artifact holds
// whatever was produced before it.
func (g *Generator) Generate(ctx context.Context, topic Topic, p profile.Profile, render RenderFunc) (Artifact, error) {
	if _, ok := ParseTopic(string(topic)); !ok {
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	if render == nil {
		render = func(Stage, string) {}
	}

	a := Artifact{ID: uuid.New().String(), Topic: topic}
	log := g.logger.With(zap.String("run_id", a.ID), zap.String("topic", string(topic)))
	log.Info("Starting training generation")

	var err error
	if a.Intro, err = g.Intro(ctx, topic); err != nil {
		log.Error("Intro generation failed", zap.Error(err))
		return a, err
	}
	render(StageIntro, a.Intro)

	if a.Scenario, err = g.Scenario(ctx, topic, p); err != nil {
		log.Error("Scenario generation failed", zap.Error(err))
		return a, err
	}
	render(StageScenario, a.Scenario)

	if a.Question, err = g.Question(ctx, a.Scenario, topic); err != nil {
		log.Error("Question generation failed", zap.Error(err))
		return a, err
	}
	render(StageQuestion, a.Question)

	log.Info("Training generated",
		zap.Int("intro_length", len(a.Intro)),
		zap.Int("scenario_length", len(a.Scenario)),
		zap.Int("question_length", len(a.Question)),
	)
	return a, nil
}

// MatchTopic asks the model which topic best fits free-text input. It is a
// suggestion only: ok is false when the model gives the no-match sentinel
// or anything that is not exactly one of the topics.
func (g *Generator) MatchTopic(ctx context.Context, input string) (Topic, bool, error) {
	reply, err := llm.Generate(ctx, g.completer, "topic match", MatchPrompt(input, TopicLabels()))
	if err != nil {
		return "", false, err
	}

	reply = strings.Trim(reply, `"'. `)
	if strings.EqualFold(reply, strings.TrimSuffix(NoMatchSentinel, ".")) {
		return "", false, nil
	}
	for _, t := range Topics() {
		if strings.EqualFold(reply, string(t)) {
			return t, true, nil
		}
	}

	g.logger.Debug("Topic match reply outside the option set", zap.String("reply", reply))
	return "", false, nil
}
