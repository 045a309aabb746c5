// Package safety implements the crisis-indicator classifier behind the
// orchestrator's safety gate. When intervention is required the turn routes
// directly to the crisis agent, bypassing all other routing.
package safety

import (
	"strings"
)

// Severity grades a safety verdict.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityElevated Severity = "elevated"
	SeverityCritical Severity = "critical"
)

// Verdict is the outcome of a safety assessment.
type Verdict struct {
	InterventionRequired bool
	Severity             Severity
	MatchedIndicators    []string
}

// Classifier is a stateless rule-based crisis classifier. Like the rupture
// detector, the indicator lists are content, not structure.
type Classifier struct {
	critical []string
	elevated []string
}

// NewClassifier returns a classifier with the built-in indicator lists.
func NewClassifier() *Classifier {
	return &Classifier{
		critical: []string{
			"kill myself", "end my life", "want to die", "suicide",
			"hurt myself", "harm myself", "no reason to live",
			"better off without me", "end it all",
		},
		elevated: []string{
			"can't go on", "cant go on", "completely hopeless",
			"nothing matters anymore", "i can't do this anymore",
			"i cant do this anymore",
		},
	}
}

// Assess classifies input for crisis indicators. Critical indicators and
// elevated indicators both require intervention; they differ only in the
// severity reported for logging.
func (c *Classifier) Assess(input string) Verdict {
	lower := strings.ToLower(input)

	if matched := matchAny(lower, c.critical); len(matched) > 0 {
		return Verdict{
			InterventionRequired: true,
			Severity:             SeverityCritical,
			MatchedIndicators:    matched,
		}
	}
	if matched := matchAny(lower, c.elevated); len(matched) > 0 {
		return Verdict{
			InterventionRequired: true,
			Severity:             SeverityElevated,
			MatchedIndicators:    matched,
		}
	}
	return Verdict{Severity: SeverityNone}
}

func matchAny(lower string, indicators []string) []string {
	var matched []string
	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			matched = append(matched, ind)
		}
	}
	return matched
}
