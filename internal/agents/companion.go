package agents

import (
	"context"
	"fmt"
	"strings"

	"attune/internal/types"
)

// AgentCompanion is the default persona agent's ID.
const AgentCompanion = "companion"

const companionSystemPrompt = `You are a warm, attentive relational companion.
Stay in your own voice. Be brief, concrete, and present with what the user
actually said. Never lecture, never diagnose.`

// CompanionAgent is the default persona: an LLM-backed conversational
// agent that takes any turn no specialized gate claims.
type CompanionAgent struct {
	client types.LLMClient
}

// NewCompanionAgent creates the default persona agent.
func NewCompanionAgent(client types.LLMClient) *CompanionAgent {
	return &CompanionAgent{client: client}
}

func (a *CompanionAgent) ID() string { return AgentCompanion }

// Respond drafts a reply from the recent history and the current input.
// Errors propagate; the orchestrator converts them to the fallback text.
func (a *CompanionAgent) Respond(ctx context.Context, input string, conv *types.ConversationContext) (*types.AgentResult, error) {
	if a.client == nil {
		return nil, fmt.Errorf("companion agent has no LLM client")
	}

	var sb strings.Builder
	for _, turn := range conv.RecentWindow(6) {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", turn.Role, turn.Content))
	}
	sb.WriteString(input)

	text, err := a.client.CompleteWithSystem(ctx, companionSystemPrompt, sb.String())
	if err != nil {
		return nil, fmt.Errorf("companion response failed: %w", err)
	}

	result := &types.AgentResult{
		Text:       text,
		Archetypes: []string{"companion"},
	}
	if conv.Enrichment.Typology != nil {
		result.Archetypes = append(result.Archetypes, conv.Enrichment.Typology.Archetype)
	}
	return result, nil
}
