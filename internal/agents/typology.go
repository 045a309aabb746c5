package agents

import (
	"context"
	"strings"

	"attune/internal/types"
)

// AgentTypology is the enrichment agent's ID. It never claims a turn; the
// orchestrator calls Insight during the enrichment stage instead.
const AgentTypology = "typology"

type archetypeProfile struct {
	archetype string
	cues      []string
}

// Cue → archetype mapping is intentionally coarse. Typology is best-effort
// color for downstream agents, not a diagnosis.
var archetypeProfiles = []archetypeProfile{
	{"analyst", []string{"why does", "what causes", "makes sense", "logically", "i've been thinking"}},
	{"feeler", []string{"i feel", "it hurts", "i'm scared", "overwhelmed", "my heart"}},
	{"doer", []string{"what should i do", "next step", "how do i fix", "plan", "get it done"}},
	{"seeker", []string{"meaning", "purpose", "why am i", "what's the point", "who am i"}},
}

// TypologyAgent profiles the user's recent language into a coarse archetype.
type TypologyAgent struct{}

func NewTypologyAgent() *TypologyAgent { return &TypologyAgent{} }

func (a *TypologyAgent) ID() string { return AgentTypology }

// Insight scores the current input plus the recent user turns against each
// archetype's cue list. Returns nil when nothing matches; enrichment is
// optional by design.
func (a *TypologyAgent) Insight(input string, conv *types.ConversationContext) *types.TypologyInsight {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(input))
	for _, turn := range conv.RecentWindow(8) {
		if turn.Role == types.RoleUser {
			sb.WriteString("\n")
			sb.WriteString(strings.ToLower(turn.Content))
		}
	}
	corpus := sb.String()

	best, bestHits := "", 0
	for _, p := range archetypeProfiles {
		hits := 0
		for _, cue := range p.cues {
			if strings.Contains(corpus, cue) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = p.archetype, hits
		}
	}
	if bestHits == 0 {
		return nil
	}

	confidence := 0.5 + 0.15*float64(bestHits)
	if confidence > 0.9 {
		confidence = 0.9
	}
	return &types.TypologyInsight{Archetype: best, Confidence: confidence}
}

// Respond exists so TypologyAgent satisfies Agent for registry listing; it
// reports its current read rather than conversing.
func (a *TypologyAgent) Respond(ctx context.Context, input string, conv *types.ConversationContext) (*types.AgentResult, error) {
	insight := a.Insight(input, conv)
	if insight == nil {
		return &types.AgentResult{Text: "I don't have a clear read yet — keep talking and I'll keep listening."}, nil
	}
	return &types.AgentResult{
		Text:       "The pattern I'm hearing most is the " + insight.Archetype + " in you.",
		Archetypes: []string{insight.Archetype},
	}, nil
}
