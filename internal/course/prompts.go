package course

import (
	"fmt"
	"strings"

	"github.com/kalambet/complytrain/internal/profile"
)

// NoMatchSentinel is the exact reply the matching prompt asks the model to
// give when the input fits none of the options.
const NoMatchSentinel = "That is not one of the options, please choose again."

// Fallbacks used when the profile lacks a field.
const (
	fallbackLocation   = "a city"
	fallbackDepartment = "a department"
	fallbackSeniority  = "a seniority level"
)

// Placeholders are the profile attributes interpolated into a scenario.
type Placeholders struct {
	Location   string
	Department string
	Seniority  string
}

// PlaceholdersFrom reads the scenario attributes from p, substituting a
// generic phrase for every absent field.
func PlaceholdersFrom(p profile.Profile) Placeholders {
	return Placeholders{
		Location:   p.GetOr(profile.KeyWorkLocation, fallbackLocation),
		Department: p.GetOr(profile.KeyDepartment, fallbackDepartment),
		Seniority:  p.GetOr(profile.KeySeniority, fallbackSeniority),
	}
}

func characterLines(area string, ph Placeholders) []string {
	return []string{
		fmt.Sprintf("This scenario is in the area of %s.", area),
		fmt.Sprintf("Create a character that is currently a %s working in the %s in %s. "+
			"The character's first name should be randomly generated, ethnically diverse and either male or female. "+
			"Only use the character's first name, do not refer explicitly to their gender.",
			ph.Seniority, ph.Department, ph.Location),
		"Start with a sentence giving the character, their position and their role.",
	}
}

// scenarioTemplates holds one prompt builder per topic. Every topic in
// Topics() must have an entry.
var scenarioTemplates = map[Topic]func(Placeholders) string{
	ConflictsOfInterest: func(ph Placeholders) string {
		lines := append(characterLines("Conflicts of Interest", ph),
			"Create a scenario in the present tense where the character faces a conflict of interest in the character's role, to do with giving a contract to a company owned by a family member.",
			"Describe the situation in no more than two paragraphs, highlighting the ethical dilemma the character faces.",
		)
		return strings.Join(lines, "\n")
	},
	AntiBribery: func(ph Placeholders) string {
		lines := append(characterLines("Anti-Bribery and Corruption", ph),
			"Create a scenario in the present tense where the character must decide whether to accept a bribe or act in compliance with company policies.",
			"Describe the situation in no more than two paragraphs, highlighting the ethical dilemma the character faces.",
		)
		return strings.Join(lines, "\n")
	},
	DataProtection: func(ph Placeholders) string {
		lines := append(characterLines("Data Protection", ph),
			"Create a scenario in the present tense where the character must ensure compliance with data protection laws while dealing with a potential breach.",
			"The dilemma should involve balancing compliance and the potential consequences of inaction.",
			"Describe the situation in no more than two paragraphs, highlighting the ethical dilemma the character faces.",
		)
		return strings.Join(lines, "\n")
	},
	SpeakingUp: func(ph Placeholders) string {
		lines := append(characterLines("Speaking Up", ph),
			"Create a scenario in the present tense where the character witnesses unethical behavior in the workplace and needs to decide whether to speak up.",
			"The situation should involve pressure from colleagues or a supervisor to keep quiet.",
			"The scenario should be no longer than two paragraphs, highlighting the ethical dilemma the character faces and the potential consequences of speaking up versus staying silent.",
		)
		return strings.Join(lines, "\n")
	},
}

// ScenarioPrompt builds the topic-specific scenario prompt for p.
func ScenarioPrompt(topic Topic, p profile.Profile) (string, error) {
	tmpl, ok := scenarioTemplates[topic]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	return tmpl(PlaceholdersFrom(p)), nil
}

// IntroPrompt asks for a short introduction to topic.
func IntroPrompt(topic Topic) string {
	return strings.Join([]string{
		fmt.Sprintf("Generate an introduction message for the user to begin their training on %s.", topic),
		"The introduction should explain the importance of the topic, how it relates to professional ethics, and what the user can expect during the training.",
		"The introduction should be no longer than two paragraphs.",
	}, "\n")
}

// QuestionPrompt asks for a three-option multiple-choice question about scenario.
func QuestionPrompt(scenario string, topic Topic) string {
	return strings.Join([]string{
		fmt.Sprintf("Based on the following scenario about %s, generate a multiple-choice question:", topic),
		fmt.Sprintf("Scenario: \"%s\"", scenario),
		"The question should be about the appropriate course of action for the dilemma.",
		"Provide three options (A, B, C), each output on a different line, with one correct answer and two incorrect but plausible options.",
		"The correct answer should be a compliant action.",
		"Do not mention the correct answer in the question. Just provide the options.",
	}, "\n")
}

// MatchPrompt asks the model to map free text onto one of options.
func MatchPrompt(input string, options []string) string {
	return strings.Join([]string{
		fmt.Sprintf("You are a helpful assistant. The user has entered the following input: \"%s\"", input),
		fmt.Sprintf("There are several possible options: %s.", strings.Join(options, ", ")),
		fmt.Sprintf("Return the option that best matches the input. If the input does not match any of the options well, return '%s'.", NoMatchSentinel),
	}, "\n")
}

// WelcomeMessage greets the user and lists the topics on offer.
func WelcomeMessage(name string) string {
	if name == "" {
		name = "User"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello %s, welcome to your personalized compliance training!\n\n", name)
	sb.WriteString("Here are your available topics:")
	for _, t := range Topics() {
		fmt.Fprintf(&sb, "\n  - %s", t)
	}
	return sb.String()
}
