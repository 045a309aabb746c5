package agents

import (
	"context"
	"strings"

	"attune/internal/types"
)

// AgentTiming is the timing/intervention agent's ID.
const AgentTiming = "timing"

var timingCues = []string{
	"is it the right time", "is now the right time", "should i wait",
	"too soon", "is it time to", "when should i",
}

// TimingAgent handles readiness questions: when to act, when to wait. When
// the question is really about self-perception it defers to the mirror
// agent instead of answering sideways.
type TimingAgent struct{}

func NewTimingAgent() *TimingAgent { return &TimingAgent{} }

func (a *TimingAgent) ID() string { return AgentTiming }

func (a *TimingAgent) ShouldRoute(input string, conv *types.ConversationContext) bool {
	lower := strings.ToLower(input)
	for _, cue := range timingCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

func (a *TimingAgent) Respond(ctx context.Context, input string, conv *types.ConversationContext) (*types.AgentResult, error) {
	lower := strings.ToLower(input)

	// "Should I wait to tell them how I come across" is a mirror question
	// wearing timing clothes.
	if strings.Contains(lower, "come across") || strings.Contains(lower, "see in me") {
		return &types.AgentResult{
			Deferred: &types.Deferral{
				Reason:           "readiness question is about self-perception",
				SuggestedAgentID: AgentMirror,
			},
		}, nil
	}

	return &types.AgentResult{
		Text:       "Before the clock, the body: when you imagine doing it right now, what happens in you? Readiness usually answers before the calendar does.",
		Archetypes: []string{"timekeeper"},
	}, nil
}
