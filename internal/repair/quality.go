package repair

import (
	"strings"
)

// Tier grades a repair for the training corpus. Post hoc only: tiers never
// affect gating.
type Tier string

const (
	TierBasic     Tier = "basic"
	TierGood      Tier = "good"
	TierExcellent Tier = "excellent"
)

// briefLength is the character threshold under which a repair earns the
// brevity point. Long repairs tend to drift into explanation.
const briefLength = 280

var (
	responsibilityMarkers = []string{
		"i got that wrong", "i missed", "that lands on me", "i'm sorry",
		"im sorry", "my fault", "i shouldn't have", "i shouldnt have",
		"i spoke over", "i lost you",
	}
	validationMarkers = []string{
		"you're right", "youre right", "what you feel is real",
		"makes sense that you", "you get to feel", "that matters",
		"matters to me", "hear how", "i hear you",
	}
	invitationMarkers = []string{
		"tell me", "say it once more", "can you help me", "what did i miss",
		"another try", "i'm still here", "im still here", "what happened for you",
		"tell me more",
	}
	hedgingMarkers = []string{
		"but you have to understand", "i was only trying", "to be fair",
		"you misunderstood me", "that's not what i said", "if you think about it",
	}
	clinicalMarkers = []string{
		"attachment style", "emotional regulation", "cognitive distortion",
		"rupture", "misattunement", "invalidation", "dysregulated",
		"holding space", "processing",
	}
)

// ScoreQuality rates a repair utterance: one point each for explicit
// responsibility-taking, validation of the other party, an invitation to
// reconnect, absence of defensive hedging, absence of clinical vocabulary,
// and brevity. The sum maps to basic/good/excellent.
func ScoreQuality(text string) (int, Tier) {
	lower := strings.ToLower(text)

	score := 0
	if matchesAny(lower, responsibilityMarkers) {
		score++
	}
	if matchesAny(lower, validationMarkers) {
		score++
	}
	if matchesAny(lower, invitationMarkers) {
		score++
	}
	if !matchesAny(lower, hedgingMarkers) {
		score++
	}
	if !matchesAny(lower, clinicalMarkers) {
		score++
	}
	if len(text) > 0 && len(text) <= briefLength {
		score++
	}

	switch {
	case score >= 6:
		return score, TierExcellent
	case score >= 4:
		return score, TierGood
	default:
		return score, TierBasic
	}
}

func matchesAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
