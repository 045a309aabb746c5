package agents

import (
	"context"
	"fmt"
	"strings"

	"attune/internal/types"
)

// AgentMirror is the mirror/reflection agent's ID.
const AgentMirror = "mirror"

var mirrorCues = []string{
	"what do you see in me", "be honest with me", "reflect back",
	"hold up a mirror", "how do i come across", "what do you notice about me",
}

// MirrorAgent reflects the user's own words back rather than advising.
type MirrorAgent struct{}

func NewMirrorAgent() *MirrorAgent { return &MirrorAgent{} }

func (a *MirrorAgent) ID() string { return AgentMirror }

func (a *MirrorAgent) ShouldRoute(input string, conv *types.ConversationContext) bool {
	lower := strings.ToLower(input)
	for _, cue := range mirrorCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

func (a *MirrorAgent) Respond(ctx context.Context, input string, conv *types.ConversationContext) (*types.AgentResult, error) {
	// Reflect the most recent user turn before this one when available, so
	// the mirror shows something rather than the question itself.
	reflected := ""
	for i := len(conv.RecentHistory) - 1; i >= 0; i-- {
		if conv.RecentHistory[i].Role == types.RoleUser {
			reflected = conv.RecentHistory[i].Content
			break
		}
	}

	var text string
	if reflected != "" {
		text = fmt.Sprintf("Here's what I see when I look: someone who just said %q and meant it. What do you notice, hearing it held up like that?", reflected)
	} else {
		text = "I can be that mirror. Say the thing you want reflected, and I'll hold it up without softening it."
	}

	return &types.AgentResult{
		Text:       text,
		Archetypes: []string{"mirror"},
	}, nil
}
