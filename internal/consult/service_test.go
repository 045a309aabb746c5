package consult

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"attune/internal/types"
)

// mockClient implements types.LLMClient for consultation tests.
type mockClient struct {
	response   string
	err        error
	delay      time.Duration
	lastSystem string
	lastPrompt string
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

func (m *mockClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.lastSystem = systemPrompt
	m.lastPrompt = userPrompt
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestConsult_Success(t *testing.T) {
	t.Parallel()

	client := &mockClient{response: validPayload}
	svc := NewService(client, time.Second, 6)

	v := svc.Consult(context.Background(), "you're not listening", "draft", nil, IntentRuptureRepair)
	if v == nil {
		t.Fatal("expected a verdict")
	}
	if v.Confidence != 0.88 {
		t.Errorf("confidence mismatch: %v", v.Confidence)
	}
	if !strings.Contains(client.lastSystem, "rupture") {
		t.Error("system instruction should reflect the rupture-repair intent")
	}
	if !strings.Contains(client.lastPrompt, "CANDIDATE DRAFT:\ndraft") {
		t.Errorf("prompt missing draft section:\n%s", client.lastPrompt)
	}
}

func TestConsult_ContextWindowCapped(t *testing.T) {
	t.Parallel()

	client := &mockClient{response: validPayload}
	svc := NewService(client, time.Second, 6)

	turns := make([]types.ConversationTurn, 10)
	for i := range turns {
		turns[i] = types.ConversationTurn{
			Role:    types.RoleUser,
			Content: fmt.Sprintf("turn-%d", i),
		}
	}

	svc.Consult(context.Background(), "input", "draft", turns, IntentAlignment)

	if strings.Contains(client.lastPrompt, "turn-3") {
		t.Error("turns beyond the last 6 must not be sent")
	}
	for i := 4; i < 10; i++ {
		if !strings.Contains(client.lastPrompt, fmt.Sprintf("turn-%d", i)) {
			t.Errorf("turn-%d missing from prompt", i)
		}
	}
}

func TestConsult_TransportError(t *testing.T) {
	t.Parallel()

	client := &mockClient{err: fmt.Errorf("backend unavailable")}
	svc := NewService(client, time.Second, 6)

	if v := svc.Consult(context.Background(), "x", "y", nil, IntentRuptureRepair); v != nil {
		t.Error("transport failure must yield nil, not a verdict")
	}
}

func TestConsult_Timeout(t *testing.T) {
	t.Parallel()

	client := &mockClient{response: validPayload, delay: 200 * time.Millisecond}
	svc := NewService(client, 20*time.Millisecond, 6)

	if v := svc.Consult(context.Background(), "x", "y", nil, IntentRuptureRepair); v != nil {
		t.Error("timeout must be treated as a parse failure")
	}
}

func TestConsult_MalformedPayload(t *testing.T) {
	t.Parallel()

	client := &mockClient{response: "the draft seems okay to me"}
	svc := NewService(client, time.Second, 6)

	if v := svc.Consult(context.Background(), "x", "y", nil, IntentRuptureRepair); v != nil {
		t.Error("unparseable payload must yield nil")
	}
}

func TestConsult_NilClient(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, time.Second, 6)
	if v := svc.Consult(context.Background(), "x", "y", nil, IntentRuptureRepair); v != nil {
		t.Error("nil client must yield nil")
	}
}

func TestConsult_UnknownIntentFallsBack(t *testing.T) {
	t.Parallel()

	client := &mockClient{response: validPayload}
	svc := NewService(client, time.Second, 6)

	if v := svc.Consult(context.Background(), "x", "y", nil, Intent("bogus")); v == nil {
		t.Fatal("unknown intent should still consult with the default instruction")
	}
	if client.lastSystem == "" {
		t.Error("system instruction missing")
	}
}
