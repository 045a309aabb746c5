package agents

import (
	"context"

	"attune/internal/types"
)

// AgentCrisis is the crisis agent's ID.
const AgentCrisis = "crisis"

// crisisResponse is deliberately deterministic: when the safety gate fires
// we do not want model variance in the reply.
const crisisResponse = `I'm really glad you told me. What you're carrying sounds heavy, and you don't have to hold it alone right now.

If you are in immediate danger, please contact your local emergency number. You can also reach the 988 Suicide & Crisis Lifeline by calling or texting 988, any time.

I'm staying right here with you. Would you tell me a little more about what this moment feels like?`

// CrisisAgent handles turns the safety gate escalates. It never calls the
// network.
type CrisisAgent struct{}

// NewCrisisAgent creates the crisis agent.
func NewCrisisAgent() *CrisisAgent { return &CrisisAgent{} }

func (a *CrisisAgent) ID() string { return AgentCrisis }

func (a *CrisisAgent) Respond(ctx context.Context, input string, conv *types.ConversationContext) (*types.AgentResult, error) {
	return &types.AgentResult{
		Text:       crisisResponse,
		Archetypes: []string{"guardian"},
		Metadata:   map[string]string{"safety": "intervention"},
	}, nil
}
