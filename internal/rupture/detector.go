// Package rupture classifies user turns for relational ruptures: signals
// that the prior response landed badly (anger, feeling unheard, withdrawal,
// invalidation). Detection is rule-based pattern matching over an ordered
// cue list; it is deliberately not statistical.
package rupture

import (
	"strings"
	"sync"
)

// Category is the closed set of rupture classifications.
type Category string

const (
	CategoryExplicitAnger Category = "explicit-anger"
	CategoryMisattunement Category = "misattunement"
	CategoryWithdrawal    Category = "withdrawal"
	CategoryInvalidation  Category = "invalidation"
	CategoryNone          Category = "none"
)

// Result is derived purely from the latest user text; no hidden state.
type Result struct {
	Detected    bool     `json:"detected"`
	Category    Category `json:"category"`
	Confidence  float64  `json:"confidence"`
	MatchedCues []string `json:"matched_cues"`
}

// Rule pairs a cue set with the category and confidence it signals. Rules
// are evaluated in slice order and the first match wins: stronger, less
// ambiguous signals must never be masked by weaker ones, so a text carrying
// both an anger cue and a bare "sure" classifies as explicit-anger.
type Rule struct {
	Name       string
	Cues       []string
	Category   Category
	Confidence float64
}

// Detector is a stateless classifier over a swappable rule list. Safe for
// concurrent Detect calls; ReplaceRules may run concurrently (lexicon hot
// reload).
type Detector struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewDetector returns a detector with the built-in cue lists.
func NewDetector() *Detector {
	return &Detector{rules: defaultRules()}
}

// NewDetectorWithRules returns a detector over a custom ordered rule list.
func NewDetectorWithRules(rules []Rule) *Detector {
	return &Detector{rules: rules}
}

// ReplaceRules swaps the rule list atomically.
func (d *Detector) ReplaceRules(rules []Rule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules = rules
}

// Detect classifies text. The first rule with any matching cue wins; all of
// that rule's matching cues are reported. No match yields a non-detection
// with confidence 0.
func (d *Detector) Detect(text string) Result {
	d.mu.RLock()
	rules := d.rules
	d.mu.RUnlock()

	lower := strings.ToLower(text)

	for _, rule := range rules {
		var matched []string
		for _, cue := range rule.Cues {
			if containsCue(lower, cue) {
				matched = append(matched, cue)
			}
		}
		if len(matched) > 0 {
			return Result{
				Detected:    true,
				Category:    rule.Category,
				Confidence:  rule.Confidence,
				MatchedCues: matched,
			}
		}
	}

	return Result{Detected: false, Category: CategoryNone, Confidence: 0}
}

// containsCue matches a cue against lowercased input. Short bare cues
// ("sure", "fine", "ok") only match as the whole trimmed utterance so a
// sentence that merely contains the word does not read as withdrawal.
func containsCue(lower, cue string) bool {
	cue = strings.ToLower(cue)
	if len(cue) <= 5 && !strings.Contains(cue, " ") {
		trimmed := strings.Trim(strings.TrimSpace(lower), ".!?")
		return trimmed == cue
	}
	return strings.Contains(lower, cue)
}

// defaultRules is the built-in lexicon, ordered strongest-signal first.
// The word lists are content, not structure; deployments can override them
// with a YAML lexicon file.
func defaultRules() []Rule {
	return []Rule{
		{
			Name:     "explicit-anger",
			Category: CategoryExplicitAnger, Confidence: 0.95,
			Cues: []string{
				"fucked up", "this is fucked", "you're not listening",
				"youre not listening", "not listening to me", "fuck you",
				"i'm so angry", "pissed off", "this is bullshit",
				"are you kidding me", "screw this",
			},
		},
		{
			Name:     "misattunement",
			Category: CategoryMisattunement, Confidence: 0.85,
			Cues: []string{
				"you don't understand", "you dont understand",
				"that's not what i meant", "thats not what i meant",
				"you're missing the point", "youre missing the point",
				"you don't get it", "you dont get it",
				"that's not it", "you misunderstood",
			},
		},
		{
			Name:     "withdrawal",
			Category: CategoryWithdrawal, Confidence: 0.7,
			Cues: []string{
				"forget it", "never mind", "nevermind", "whatever",
				"i'm done talking", "im done talking", "doesn't matter anyway",
				"doesnt matter anyway",
			},
		},
		{
			Name:     "invalidation",
			Category: CategoryInvalidation, Confidence: 0.75,
			Cues: []string{
				"you make me feel stupid", "that was dismissive",
				"you're dismissing", "youre dismissing",
				"don't tell me how i feel", "dont tell me how i feel",
				"stop minimizing", "that felt condescending",
			},
		},
		{
			// Bare minimal acknowledgements. Lowest priority so they never
			// mask a stronger signal; reported as withdrawal to keep the
			// category set closed.
			Name:     "subtle-withdrawal",
			Category: CategoryWithdrawal, Confidence: 0.6,
			Cues:     []string{"sure", "fine", "ok", "okay", "k", "if you say so"},
		},
	}
}
