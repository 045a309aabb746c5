// Package types defines the shared data model for the relational
// conversation core: turns, request-scoped context, agent results, and the
// interfaces of external collaborators (agents, memory store, LLM client).
package types

import (
	"time"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// ConversationTurn is a single utterance in a session. Immutable once
// created; history is append-only per session.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TypologyInsight is the best-effort personality profile attached to a
// context during enrichment.
type TypologyInsight struct {
	Archetype  string  `json:"archetype"`
	Confidence float64 `json:"confidence"`
}

// Enrichment holds typed upstream annotations. Each pipeline stage only
// reads the fields it can rely on; no untyped metadata bags cross stage
// boundaries.
type Enrichment struct {
	Typology *TypologyInsight
}

// ConversationContext is owned by the orchestrator for the duration of one
// request. RecentHistory is ordered oldest-first. Not persisted by the core.
type ConversationContext struct {
	UserID        string
	SessionID     string
	Mode          string
	RecentHistory []ConversationTurn
	Enrichment    Enrichment
}

// LastAgentTurn returns the most recent agent utterance, or nil if the
// session has none yet.
func (c *ConversationContext) LastAgentTurn() *ConversationTurn {
	for i := len(c.RecentHistory) - 1; i >= 0; i-- {
		if c.RecentHistory[i].Role == RoleAgent {
			return &c.RecentHistory[i]
		}
	}
	return nil
}

// RecentWindow returns up to the last n turns, oldest-first.
func (c *ConversationContext) RecentWindow(n int) []ConversationTurn {
	if n <= 0 || len(c.RecentHistory) == 0 {
		return nil
	}
	if len(c.RecentHistory) <= n {
		return c.RecentHistory
	}
	return c.RecentHistory[len(c.RecentHistory)-n:]
}

// Deferral signals that an agent declined the turn and suggests a handoff.
type Deferral struct {
	Reason           string
	SuggestedAgentID string
}

// AgentResult is the draft produced by exactly one agent per request
// (unless a deferral chains to another agent).
type AgentResult struct {
	Text       string
	Archetypes []string
	Deferred   *Deferral
	Metadata   map[string]string
}
