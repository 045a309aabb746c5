package consult

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"attune/internal/logging"
	"attune/internal/types"
)

// Intent selects the advisory instruction template.
type Intent string

const (
	IntentRelationalEnhancement Intent = "relational-enhancement"
	IntentRuptureRepair         Intent = "rupture-repair"
	IntentDeepShadow            Intent = "deep-shadow"
	IntentSafetyCheck           Intent = "safety-check"
	IntentAlignment             Intent = "alignment"
)

// verdictSchema is the response contract sent with every consultation.
const verdictSchema = `Respond with ONLY a JSON object, no prose, with exactly these fields:
{
  "improved_text": "your improved version of the draft",
  "issues": ["issue found in the draft", "..."],
  "repair_needed": true,
  "repair_hint": "optional short guidance",
  "depth_level": "shallow|core|deep",
  "intensity": "low|medium|high",
  "sovereignty_preserved": true,
  "relationship_strengthened": true,
  "confidence": 0.0
}
sovereignty_preserved must be false if your improved text replaces the
companion's own voice or identity with yours. confidence is your calibrated
confidence in the improvement, 0 to 1.`

// intentInstructions frames the advisor's role per consultation intent.
var intentInstructions = map[Intent]string{
	IntentRelationalEnhancement: "You are a relational supervisor reviewing a companion's draft reply. Improve warmth and attunement without changing the companion's voice.",
	IntentRuptureRepair:         "You are a relational supervisor. The user signaled a rupture: the previous response landed badly. Critique the draft repair and produce a better one that takes responsibility, validates the user, and invites reconnection.",
	IntentDeepShadow:            "You are a relational supervisor attending to what is unsaid. Surface the deeper need beneath the user's words and reflect it gently in the improved draft.",
	IntentSafetyCheck:           "You are a safety reviewer. Check the draft for anything that could increase the user's distress and produce a safer alternative.",
	IntentAlignment:             "You are a relational supervisor checking that the draft stays aligned with the companion's established voice and commitments.",
}

// Service performs the advisory round-trip. No local caching: advisory
// content is context-specific and every call is fresh.
type Service struct {
	client       types.LLMClient
	timeout      time.Duration
	contextTurns int
	log          *zap.Logger
}

// NewService creates a consultation service over an LLM client.
func NewService(client types.LLMClient, timeout time.Duration, contextTurns int) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if contextTurns <= 0 {
		contextTurns = 6
	}
	return &Service{
		client:       client,
		timeout:      timeout,
		contextTurns: contextTurns,
		log:          logging.Get(logging.CategoryConsult),
	}
}

// Consult asks the advisory backend to critique draftResponse. Returns nil
// on any failure: timeout, transport error, or unparseable payload. Never
// retries and never returns an error; the caller's baseline stands.
func (s *Service) Consult(ctx context.Context, userInput, draftResponse string, recent []types.ConversationTurn, intent Intent) *Verdict {
	if s.client == nil {
		return nil
	}

	instruction, ok := intentInstructions[intent]
	if !ok {
		instruction = intentInstructions[IntentRelationalEnhancement]
	}
	system := instruction + "\n\n" + verdictSchema
	prompt := s.buildPrompt(userInput, draftResponse, recent)

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.client.CompleteWithSystem(cctx, system, prompt)
	if err != nil {
		s.log.Warn("consultation call failed",
			zap.String("intent", string(intent)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil
	}

	verdict := ParseVerdict(raw)
	if verdict == nil {
		s.log.Warn("consultation payload unparseable",
			zap.String("intent", string(intent)),
			zap.Int("raw_len", len(raw)))
		return nil
	}

	s.log.Debug("consultation verdict",
		zap.String("intent", string(intent)),
		zap.Float64("confidence", verdict.Confidence),
		zap.Bool("repair_needed", verdict.RepairNeeded),
		zap.Duration("elapsed", time.Since(start)))
	return verdict
}

// buildPrompt assembles the user prompt with up to the last contextTurns
// turns of recent history.
func (s *Service) buildPrompt(userInput, draftResponse string, recent []types.ConversationTurn) string {
	var sb strings.Builder

	if len(recent) > 0 {
		window := recent
		if len(window) > s.contextTurns {
			window = window[len(window)-s.contextTurns:]
		}
		sb.WriteString("RECENT CONVERSATION:\n")
		for _, turn := range window {
			sb.WriteString(fmt.Sprintf("[%s] %s\n", turn.Role, turn.Content))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("USER SAID:\n%s\n\n", userInput))
	sb.WriteString(fmt.Sprintf("CANDIDATE DRAFT:\n%s\n", draftResponse))
	return sb.String()
}
