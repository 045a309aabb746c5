package types

import (
	"context"
)

// LLMClient defines the interface for LLM providers.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Agent turns (input, context) into a draft response. Implementations may
// return an error; callers must catch and degrade, never propagate to the
// end user.
type Agent interface {
	ID() string
	Respond(ctx context.Context, input string, conv *ConversationContext) (*AgentResult, error)
}

// RoutedAgent is an Agent that can claim a turn via its own gate predicate.
// Gates are evaluated in a fixed priority order; the first that returns
// true claims the turn.
type RoutedAgent interface {
	Agent
	ShouldRoute(input string, conv *ConversationContext) bool
}

// MemoryStore is the passive-witnessing collaborator. Writes are
// fire-and-forget from the pipeline's point of view: failures are logged
// and ignored, never surfaced.
type MemoryStore interface {
	Write(ctx context.Context, userID, content string, metadata map[string]string) (string, error)
}
