package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"attune/internal/logging"
	"attune/internal/memory"
	"attune/internal/types"
)

// AgentWitness is the memory/witness agent's ID.
const AgentWitness = "witness"

// Recaller reads back witnessed exchanges. Satisfied by *memory.SQLiteStore.
type Recaller interface {
	Recent(ctx context.Context, userID string, n int) ([]memory.Entry, error)
}

var witnessCues = []string{
	"remember when", "do you remember", "last time we", "you said before",
	"we talked about", "like before",
}

// WitnessAgent claims turns that reach back into shared history. Recall is
// best-effort: if the store is unavailable the agent still witnesses the
// asking.
type WitnessAgent struct {
	recaller Recaller
}

func NewWitnessAgent(recaller Recaller) *WitnessAgent {
	return &WitnessAgent{recaller: recaller}
}

func (a *WitnessAgent) ID() string { return AgentWitness }

func (a *WitnessAgent) ShouldRoute(input string, conv *types.ConversationContext) bool {
	lower := strings.ToLower(input)
	for _, cue := range witnessCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

func (a *WitnessAgent) Respond(ctx context.Context, input string, conv *types.ConversationContext) (*types.AgentResult, error) {
	held := 0
	if a.recaller != nil && conv.UserID != "" {
		entries, err := a.recaller.Recent(ctx, conv.UserID, 20)
		if err != nil {
			logging.Get(logging.CategoryAgents).Warn("witness recall failed", zap.Error(err))
		} else {
			held = len(entries)
		}
	}

	var text string
	if held > 0 {
		text = fmt.Sprintf("I do hold that with you — it's one of %d moments we've kept between us. Tell me what's bringing it back right now.", held)
	} else {
		text = "I want to hold that memory with you. Walk me back into it — what stands out most when you return there?"
	}

	return &types.AgentResult{
		Text:       text,
		Archetypes: []string{"witness"},
	}, nil
}
