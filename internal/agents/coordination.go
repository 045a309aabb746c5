package agents

import (
	"context"
	"fmt"
	"strings"

	"attune/internal/types"
)

// Multi-voice agent IDs.
const (
	AgentTriad = "triad"
	AgentPair  = "pair"
)

var triadCues = []string{"all of you", "everyone", "all three"}
var pairCues = []string{"both of you", "the two of you", "you two"}

// TriadAgent answers when the user addresses the whole ensemble. It
// composes one reply from the voices of its member agents rather than
// speaking over them.
type TriadAgent struct {
	members []types.Agent
}

// NewTriadAgent builds the three-voice agent. Members respond in the order
// given.
func NewTriadAgent(members ...types.Agent) *TriadAgent {
	return &TriadAgent{members: members}
}

func (a *TriadAgent) ID() string { return AgentTriad }

func (a *TriadAgent) ShouldRoute(input string, conv *types.ConversationContext) bool {
	return matchesAny(input, triadCues)
}

func (a *TriadAgent) Respond(ctx context.Context, input string, conv *types.ConversationContext) (*types.AgentResult, error) {
	return composeVoices(ctx, a.members, input, conv)
}

// PairAgent is the two-voice variant of TriadAgent.
type PairAgent struct {
	members []types.Agent
}

func NewPairAgent(first, second types.Agent) *PairAgent {
	return &PairAgent{members: []types.Agent{first, second}}
}

func (a *PairAgent) ID() string { return AgentPair }

func (a *PairAgent) ShouldRoute(input string, conv *types.ConversationContext) bool {
	return matchesAny(input, pairCues)
}

func (a *PairAgent) Respond(ctx context.Context, input string, conv *types.ConversationContext) (*types.AgentResult, error) {
	return composeVoices(ctx, a.members, input, conv)
}

func matchesAny(input string, cues []string) bool {
	lower := strings.ToLower(input)
	for _, cue := range cues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// composeVoices collects each member's draft into one labeled reply. A
// failing member is skipped so one bad voice never silences the rest; if
// every voice fails the error surfaces for the caller to degrade.
func composeVoices(ctx context.Context, members []types.Agent, input string, conv *types.ConversationContext) (*types.AgentResult, error) {
	var sb strings.Builder
	var archetypes []string
	voiced := 0

	for _, member := range members {
		result, err := member.Respond(ctx, input, conv)
		if err != nil || result == nil || result.Text == "" {
			continue
		}
		if voiced > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("[%s] %s", member.ID(), result.Text))
		archetypes = append(archetypes, result.Archetypes...)
		voiced++
	}

	if voiced == 0 {
		return nil, fmt.Errorf("no voices available for multi-agent response")
	}
	return &types.AgentResult{Text: sb.String(), Archetypes: archetypes}, nil
}
