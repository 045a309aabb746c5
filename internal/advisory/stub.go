package advisory

import (
	"context"
	"strings"
)

// StubClient is a deterministic offline LLMClient. Used when no API key is
// configured and throughout the test suite.
type StubClient struct {
	// Response, when set, is returned for every call.
	Response string
}

// Complete returns a canned supportive reply.
func (c *StubClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem returns Response when set, otherwise a short echo of
// the user's words so conversations stay readable offline.
func (c *StubClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.Response != "" {
		return c.Response, nil
	}

	// Echo the tail of the prompt so offline output tracks the input.
	line := userPrompt
	if idx := strings.LastIndex(line, "\n"); idx >= 0 {
		line = line[idx+1:]
	}
	if len(line) > 120 {
		line = line[:120]
	}
	return "I'm with you. I heard: " + strings.TrimSpace(line), nil
}
