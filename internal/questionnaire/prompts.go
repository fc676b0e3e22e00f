package questionnaire

import (
	"fmt"
	"strings"

	"github.com/kalambet/complytrain/internal/profile"
)

const persona = "You are Hal, a helpful assistant gathering some information to build a professional profile."

// BuildPrompt returns the prompt that asks the model to phrase the question
// for key. Only answers that come earlier in the questionnaire are used.
func BuildPrompt(key string, answers profile.Profile) (string, error) {
	name := answers.GetOr(profile.KeyName, "")
	city := answers.GetOr(profile.KeyWorkLocation, "")
	dept := answers.GetOr(profile.KeyDepartment, "")

	var lines []string
	switch key {
	case profile.KeyName:
		lines = []string{
			"You are Hal.",
			"Let the user know you are looking to build a professional profile about them.",
			"Be friendly and engaging and ask the user for their name.",
		}
	case profile.KeyWorkLocation:
		lines = []string{
			persona,
			fmt.Sprintf("You know the user's name is %s. You want to ask them what city they work in.", name),
			fmt.Sprintf("Compose a question to ask %s what city they work in.", name),
			"Keep it short.",
			"Make sure to acknowledge their name and transition smoothly to the next question.",
			"Do not make any other assumptions or mention any other information than their name.",
			"Do not include any greetings, introductory phrases, or personal opinions.",
		}
	case profile.KeyDepartment:
		lines = []string{
			persona,
			fmt.Sprintf("Provide an interesting fact about the city of %s.", city),
			"Preface this fact by saying you heard it recently.",
			fmt.Sprintf("You know the user's name is %s and that they work in %s.", name, city),
			"You also want to ask them separately what department they work in.",
			fmt.Sprintf("Compose a question to ask %s about their department.", name),
			"Do not include any greetings, introductory phrases, or personal opinions.",
		}
	case profile.KeySeniority:
		lines = []string{
			persona,
			fmt.Sprintf("The user just mentioned they work in the %s department.", dept),
			"Provide a positive comment about working in this department.",
			"You also want to ask them what their seniority level is.",
			fmt.Sprintf("Compose a question to ask %s about their seniority level in %s.", name, dept),
			"Do not include any greetings, introductory phrases, or personal opinions.",
		}
	default:
		return "", fmt.Errorf("no prompt for question %q", key)
	}
	return strings.Join(lines, "\n"), nil
}

// InputLabel is the caption shown next to the answer field for key.
func InputLabel(key string) string {
	return fmt.Sprintf("Write your %s here:", key)
}
