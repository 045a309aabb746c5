package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"attune/internal/memory"
	"attune/internal/types"
)

type scriptedClient struct {
	reply string
	err   error
}

func (c *scriptedClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.reply, c.err
}

func (c *scriptedClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.reply, c.err
}

type scriptedRecaller struct {
	entries []memory.Entry
	err     error
}

func (r *scriptedRecaller) Recent(ctx context.Context, userID string, n int) ([]memory.Entry, error) {
	return r.entries, r.err
}

func conv(turns ...types.ConversationTurn) *types.ConversationContext {
	return &types.ConversationContext{
		UserID:        "user-1",
		SessionID:     "session-1",
		RecentHistory: turns,
	}
}

func userTurn(content string) types.ConversationTurn {
	return types.ConversationTurn{Role: types.RoleUser, Content: content, Timestamp: time.Now()}
}

func TestGatePredicates(t *testing.T) {
	t.Parallel()

	suite := NewSuite(&scriptedClient{reply: "ok"}, nil)

	tests := []struct {
		input string
		want  string // agent ID, or "" for no gate
	}{
		{"remember when we talked about my dad?", AgentWitness},
		{"what do you see in me?", AgentMirror},
		{"is it the right time to reach out?", AgentTiming},
		{"I want to hear from all of you", AgentTriad},
		{"what do both of you think?", AgentPair},
		{"just had a normal day at work", ""},
	}

	for _, tt := range tests {
		claimed := ""
		for _, agent := range suite.Gated {
			if agent.ShouldRoute(tt.input, conv()) {
				claimed = agent.ID()
				break
			}
		}
		if claimed != tt.want {
			t.Errorf("input %q: claimed by %q, want %q", tt.input, claimed, tt.want)
		}
	}
}

func TestWitnessRecallsHeldMoments(t *testing.T) {
	t.Parallel()

	recaller := &scriptedRecaller{entries: []memory.Entry{{Content: "a"}, {Content: "b"}}}
	agent := NewWitnessAgent(recaller)

	result, err := agent.Respond(context.Background(), "remember when we talked?", conv())
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.Contains(result.Text, "2 moments") {
		t.Errorf("expected held-count in reply, got %q", result.Text)
	}
}

func TestWitnessDegradesWithoutStore(t *testing.T) {
	t.Parallel()

	for _, agent := range []*WitnessAgent{
		NewWitnessAgent(nil),
		NewWitnessAgent(&scriptedRecaller{err: errors.New("db locked")}),
	} {
		result, err := agent.Respond(context.Background(), "remember when?", conv())
		if err != nil {
			t.Fatalf("Respond should not fail on recall trouble: %v", err)
		}
		if result.Text == "" {
			t.Error("expected a reply even without recall")
		}
	}
}

func TestMirrorReflectsLastUserTurn(t *testing.T) {
	t.Parallel()

	agent := NewMirrorAgent()
	c := conv(userTurn("I always give up too early"))

	result, err := agent.Respond(context.Background(), "what do you see in me?", c)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.Contains(result.Text, "I always give up too early") {
		t.Errorf("expected reflection of prior turn, got %q", result.Text)
	}
}

func TestTimingDefersSelfPerceptionQuestions(t *testing.T) {
	t.Parallel()

	agent := NewTimingAgent()
	result, err := agent.Respond(context.Background(), "is it the right time to ask how i come across?", conv())
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if result.Deferred == nil {
		t.Fatal("expected a deferral")
	}
	if result.Deferred.SuggestedAgentID != AgentMirror {
		t.Errorf("deferral target = %q, want %q", result.Deferred.SuggestedAgentID, AgentMirror)
	}
}

func TestTypologyInsight(t *testing.T) {
	t.Parallel()

	agent := NewTypologyAgent()

	tests := []struct {
		name  string
		input string
		want  string // archetype, "" for nil insight
	}{
		{"feeling language", "i feel like my heart is breaking", "feeler"},
		{"action language", "what should i do about the next step", "doer"},
		{"no signal", "hello there", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			insight := agent.Insight(tt.input, conv())
			if tt.want == "" {
				if insight != nil {
					t.Fatalf("expected nil insight, got %+v", insight)
				}
				return
			}
			if insight == nil {
				t.Fatal("expected an insight")
			}
			if insight.Archetype != tt.want {
				t.Errorf("archetype = %q, want %q", insight.Archetype, tt.want)
			}
			if insight.Confidence <= 0 || insight.Confidence > 0.9 {
				t.Errorf("confidence %v out of range", insight.Confidence)
			}
		})
	}
}

func TestTriadComposesAllVoices(t *testing.T) {
	t.Parallel()

	triad := NewTriadAgent(NewWitnessAgent(nil), NewMirrorAgent(), NewTimingAgent())
	result, err := triad.Respond(context.Background(), "I want to hear from all of you", conv())
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	for _, id := range []string{AgentWitness, AgentMirror, AgentTiming} {
		if !strings.Contains(result.Text, "["+id+"]") {
			t.Errorf("composed reply missing %s voice:\n%s", id, result.Text)
		}
	}
}

func TestTriadSkipsFailingVoice(t *testing.T) {
	t.Parallel()

	failing := NewCompanionAgent(&scriptedClient{err: errors.New("model down")})
	triad := NewTriadAgent(failing, NewMirrorAgent())

	result, err := triad.Respond(context.Background(), "everyone weigh in", conv())
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.Contains(result.Text, "["+AgentMirror+"]") {
		t.Errorf("expected surviving voice, got %q", result.Text)
	}
	if strings.Contains(result.Text, "["+AgentCompanion+"]") {
		t.Errorf("failing voice should be skipped, got %q", result.Text)
	}
}

func TestTriadAllVoicesFailing(t *testing.T) {
	t.Parallel()

	failing := NewCompanionAgent(&scriptedClient{err: errors.New("model down")})
	triad := NewTriadAgent(failing)

	if _, err := triad.Respond(context.Background(), "everyone?", conv()); err == nil {
		t.Fatal("expected error when every voice fails")
	}
}

func TestCompanionIncludesArchetype(t *testing.T) {
	t.Parallel()

	agent := NewCompanionAgent(&scriptedClient{reply: "I'm here."})
	c := conv()
	c.Enrichment.Typology = &types.TypologyInsight{Archetype: "seeker", Confidence: 0.7}

	result, err := agent.Respond(context.Background(), "hi", c)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	found := false
	for _, a := range result.Archetypes {
		if a == "seeker" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected seeker archetype tag, got %v", result.Archetypes)
	}
}

func TestDimensionSelector(t *testing.T) {
	t.Parallel()

	selector := NewDimensionSelector("")

	tests := []struct {
		input string
		want  string
	}{
		{"i feel so lonely tonight", "emotional"},
		{"how do i bring this up with her", "practical"},
		{"looking back, i wonder what it all meant", "reflective"},
		{"good morning", "presence"},
	}
	for _, tt := range tests {
		agentID, dimension := selector.Select(tt.input, conv())
		if agentID != AgentCompanion {
			t.Errorf("input %q: agentID = %q, want %q", tt.input, agentID, AgentCompanion)
		}
		if dimension != tt.want {
			t.Errorf("input %q: dimension = %q, want %q", tt.input, dimension, tt.want)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	suite := NewSuite(&scriptedClient{reply: "ok"}, nil)

	if _, err := suite.Registry.Get(AgentCompanion); err != nil {
		t.Errorf("Get(companion): %v", err)
	}
	if _, err := suite.Registry.Get("nonexistent"); err == nil {
		t.Error("expected error for unknown agent")
	}
	if got := len(suite.Registry.IDs()); got != 8 {
		t.Errorf("registered agents = %d, want 8", got)
	}
}
