// Package repair produces baseline rupture-repair utterances and decides
// whether an advisory-enhanced alternative may replace them. The baseline
// generator is deterministic, local, and always available: repair must
// never depend on the network.
package repair

import (
	"math/rand"

	"attune/internal/rupture"
)

// baselines holds human-reviewed repair templates per rupture category.
// Variants keep back-to-back repairs from sounding canned; the pick is
// driven by an injectable random source so tests can force a variant.
var baselines = map[rupture.Category][]string{
	rupture.CategoryExplicitAnger: {
		"You're right to be angry, and I want to hear it. I got that wrong. What did I miss?",
		"I hear how angry you are. That lands on me, not you. Tell me where I lost you.",
	},
	rupture.CategoryMisattunement: {
		"I missed what you were actually saying. Can you help me hear it again?",
		"I think I answered the wrong thing. What you meant matters to me, say it once more?",
	},
	rupture.CategoryWithdrawal: {
		"I notice you pulling back, and I don't want to leave it there. I'm still here if you want to stay with this.",
		"It sounds like something in me pushed you away. No pressure, but I'd like another try.",
	},
	rupture.CategoryInvalidation: {
		"What you feel is real, and I spoke over it. I'm sorry. I want to understand it on your terms.",
		"You get to feel exactly what you feel. I shouldn't have flattened that. Tell me more?",
	},
}

// defaultBaseline covers CategoryNone and any future category.
var defaultBaseline = []string{
	"Something I said didn't sit right, and I want to take that seriously. What happened for you just now?",
}

// Generator picks baseline repair templates.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator over the given random source. Pass a
// seeded source in tests for deterministic variant selection.
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// GenerateBaseline returns a repair utterance for the category. Always
// succeeds; requires no network.
func (g *Generator) GenerateBaseline(category rupture.Category) string {
	variants, ok := baselines[category]
	if !ok || len(variants) == 0 {
		variants = defaultBaseline
	}
	if len(variants) == 1 {
		return variants[0]
	}
	return variants[g.rng.Intn(len(variants))]
}

// BaselineVariants exposes the template set for a category. Used by the
// quality scorer's tests and by curation tooling; the pipeline itself only
// calls GenerateBaseline.
func BaselineVariants(category rupture.Category) []string {
	if variants, ok := baselines[category]; ok {
		return variants
	}
	return defaultBaseline
}
