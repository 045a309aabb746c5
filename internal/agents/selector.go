package agents

import (
	"strings"

	"attune/internal/types"
)

// DimensionSelector is the default-routing content classifier: it names the
// agent and the topical dimension for turns no specialized gate claims. The
// classification is coarse keyword matching, same idiom as the gates.
type DimensionSelector struct {
	defaultAgentID string
}

// NewDimensionSelector creates a selector that routes unclaimed turns to
// agentID.
func NewDimensionSelector(agentID string) *DimensionSelector {
	if agentID == "" {
		agentID = AgentCompanion
	}
	return &DimensionSelector{defaultAgentID: agentID}
}

var dimensionCues = []struct {
	dimension string
	cues      []string
}{
	{"emotional", []string{"i feel", "feeling", "hurts", "scared", "lonely", "miss", "love", "afraid"}},
	{"practical", []string{"how do i", "what should", "need to figure out", "decide", "plan"}},
	{"reflective", []string{"i wonder", "meaning", "why do i", "looking back", "realize"}},
}

// Select returns (agentID, dimension) for a turn. Always succeeds; the
// fallback dimension is simple presence.
func (s *DimensionSelector) Select(input string, conv *types.ConversationContext) (string, string) {
	lower := strings.ToLower(input)
	for _, dc := range dimensionCues {
		for _, cue := range dc.cues {
			if strings.Contains(lower, cue) {
				return s.defaultAgentID, dc.dimension
			}
		}
	}
	return s.defaultAgentID, "presence"
}
