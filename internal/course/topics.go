// Package course generates a personalized compliance-training unit: an
// introduction to the chosen topic, a scenario set in the user's own
// workplace, and a multiple-choice question about it.
package course

import (
	"errors"
	"strconv"
	"strings"
)

// Topic is one of the fixed compliance-training subject areas.
type Topic string

const (
	ConflictsOfInterest Topic = "Conflicts of interest"
	AntiBribery         Topic = "Anti-Bribery and Corruption"
	DataProtection      Topic = "Data Protection"
	SpeakingUp          Topic = "Speaking Up"
)

// ErrUnknownTopic is returned for a label outside the fixed topic set.
var ErrUnknownTopic = errors.New("unknown topic")

// Topics returns the available topics in menu order.
func Topics() []Topic {
	return []Topic{ConflictsOfInterest, AntiBribery, DataProtection, SpeakingUp}
}

// TopicLabels returns the topics as plain strings.
func TopicLabels() []string {
	topics := Topics()
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = string(t)
	}
	return out
}

// ParseTopic checks s for exact membership in the topic set.
func ParseTopic(s string) (Topic, bool) {
	for _, t := range Topics() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// SelectTopic resolves a menu choice: a 1-based number or an exact label
// (case-insensitive). It never calls the model; see Generator.MatchTopic for
// fuzzy input.
func SelectTopic(choice string) (Topic, bool) {
	choice = strings.TrimSpace(choice)
	topics := Topics()
	if n, err := strconv.Atoi(choice); err == nil {
		if n >= 1 && n <= len(topics) {
			return topics[n-1], true
		}
		return "", false
	}
	for _, t := range topics {
		if strings.EqualFold(string(t), choice) {
			return t, true
		}
	}
	return "", false
}
