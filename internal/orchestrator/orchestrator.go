// Package orchestrator runs the per-request pipeline: safety gate, rupture
// check, enrichment, agent routing, and response assembly. ProcessQuery
// never returns an error; every internal failure degrades to a usable
// response, because the person on the other end is mid-conversation.
package orchestrator

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"attune/internal/agents"
	"attune/internal/cache"
	"attune/internal/config"
	"attune/internal/consult"
	"attune/internal/logging"
	"attune/internal/repair"
	"attune/internal/rupture"
	"attune/internal/safety"
	"attune/internal/training"
	"attune/internal/types"
)

// fallbackResponse is the floor: returned when every agent path fails.
const fallbackResponse = "I'm here to support you, let's continue."

// Response is the assembled outcome of one ProcessQuery call.
type Response struct {
	Success   bool
	Response  string
	AgentID   string
	Dimension string
	Metadata  map[string]string
	Timestamp time.Time
}

// Consulter is the advisory collaborator. Satisfied by *consult.Service.
type Consulter interface {
	Consult(ctx context.Context, userInput, draftResponse string, recent []types.ConversationTurn, intent consult.Intent) *consult.Verdict
}

// ContentSelector names the agent and topical dimension for turns no
// specialized gate claims. Content classification is the selector's concern;
// the orchestrator only needs an agent ID back.
type ContentSelector interface {
	Select(input string, conv *types.ConversationContext) (agentID, dimension string)
}

// Orchestrator owns the request pipeline and its collaborators. Stateless
// between requests apart from the shared cache; safe for concurrent
// ProcessQuery calls.
type Orchestrator struct {
	cfg      *config.Config
	suite    *agents.Suite
	safety   *safety.Classifier
	detector *rupture.Detector
	repairer *repair.Generator
	advisor  Consulter
	selector ContentSelector
	training *training.Logger
	memory   types.MemoryStore
	cache    *cache.Cache
	log      *zap.Logger
}

// Options bundles the orchestrator's collaborators. Advisor, Training,
// Memory, and Cache may be nil; the pipeline degrades around them.
type Options struct {
	Config   *config.Config
	Suite    *agents.Suite
	Safety   *safety.Classifier
	Detector *rupture.Detector
	Repairer *repair.Generator
	Advisor  Consulter
	Selector ContentSelector
	Training *training.Logger
	Memory   types.MemoryStore
	Cache    *cache.Cache
}

// New creates an orchestrator. Suite is required; the other core
// collaborators (safety, detector, repairer, selector) get built-in
// defaults when nil so a partially-wired caller still works.
func New(opts Options) *Orchestrator {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Safety == nil {
		opts.Safety = safety.NewClassifier()
	}
	if opts.Detector == nil {
		opts.Detector = rupture.NewDetector()
	}
	if opts.Repairer == nil {
		opts.Repairer = repair.NewGenerator(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Selector == nil {
		opts.Selector = agents.NewDimensionSelector(agents.AgentCompanion)
	}
	return &Orchestrator{
		cfg:      opts.Config,
		suite:    opts.Suite,
		safety:   opts.Safety,
		detector: opts.Detector,
		repairer: opts.Repairer,
		advisor:  opts.Advisor,
		selector: opts.Selector,
		training: opts.Training,
		memory:   opts.Memory,
		cache:    opts.Cache,
		log:      logging.Get(logging.CategoryRouting),
	}
}

// ProcessQuery runs one user turn through the pipeline. Stage order is
// fixed: safety outranks everything, rupture outranks routing, and the
// default agent catches whatever no gate claims.
func (o *Orchestrator) ProcessQuery(ctx context.Context, input string, conv *types.ConversationContext) *Response {
	if conv == nil {
		conv = &types.ConversationContext{}
	}

	if o.cfg.Orchestrator.SafetyGateEnabled {
		if verdict := o.safety.Assess(input); verdict.InterventionRequired {
			o.log.Warn("safety gate intervention",
				zap.String("severity", string(verdict.Severity)),
				zap.Strings("indicators", verdict.MatchedIndicators))
			return o.respondWith(ctx, o.suite.Crisis, input, conv, "safety")
		}
	}

	if result := o.detector.Detect(input); result.Detected {
		return o.handleRupture(ctx, input, conv, result)
	}

	o.enrich(ctx, input, conv)

	for _, agent := range o.suite.Gated {
		if agent.ShouldRoute(input, conv) {
			return o.respondWith(ctx, agent, input, conv, "")
		}
	}

	agentID, dimension := o.selector.Select(input, conv)
	selected, err := o.suite.Registry.Get(agentID)
	if err != nil {
		// Agent-not-found is a normal error path, same degradation as an
		// agent failure.
		o.log.Warn("selected agent missing", zap.String("agent", agentID), zap.Error(err))
		selected = o.suite.Default
	}
	return o.respondWith(ctx, selected, input, conv, dimension)
}

// respondWith runs one agent (following at most MaxDeferralHops handoffs)
// and assembles the response. Agent errors degrade to the fallback text.
func (o *Orchestrator) respondWith(ctx context.Context, agent types.Agent, input string, conv *types.ConversationContext, dimension string) *Response {
	result, agentID := o.processWithAgent(ctx, agent, input, conv)

	text := fallbackResponse
	success := false
	if result != nil && result.Text != "" {
		text = result.Text
		success = true
	}

	if dimension == "" {
		dimension = "presence"
		if result != nil && len(result.Archetypes) > 0 {
			dimension = result.Archetypes[0]
		}
	}

	resp := &Response{
		Success:   success,
		Response:  text,
		AgentID:   agentID,
		Dimension: dimension,
		Timestamp: time.Now(),
	}
	if result != nil {
		resp.Metadata = result.Metadata
	}

	o.witness(conv, input, text, agentID)
	return resp
}

// processWithAgent invokes an agent, chasing at most the configured number
// of deferrals. A broken deferral chain falls through to the default agent.
func (o *Orchestrator) processWithAgent(ctx context.Context, agent types.Agent, input string, conv *types.ConversationContext) (*types.AgentResult, string) {
	maxHops := o.cfg.Orchestrator.MaxDeferralHops
	if maxHops < 0 {
		maxHops = 0
	}

	current := agent
	fellBack := false
	for hop := 0; ; hop++ {
		result, err := current.Respond(ctx, input, conv)
		if err != nil {
			o.log.Warn("agent response failed",
				zap.String("agent", current.ID()),
				zap.Error(err))
			if fellBack {
				return nil, current.ID()
			}
			current, fellBack = o.suite.Default, true
			continue
		}

		if result == nil || result.Deferred == nil {
			return result, current.ID()
		}
		if fellBack {
			// The fallback agent does not get to defer again.
			return nil, current.ID()
		}

		if hop >= maxHops {
			o.log.Warn("deferral cap reached",
				zap.String("agent", current.ID()),
				zap.String("suggested", result.Deferred.SuggestedAgentID))
			current, fellBack = o.suite.Default, true
			continue
		}

		next, lookupErr := o.suite.Registry.Get(result.Deferred.SuggestedAgentID)
		if lookupErr != nil {
			o.log.Warn("deferral to unknown agent",
				zap.String("agent", current.ID()),
				zap.String("suggested", result.Deferred.SuggestedAgentID))
			current, fellBack = o.suite.Default, true
			continue
		}

		o.log.Debug("deferral handoff",
			zap.String("from", current.ID()),
			zap.String("to", next.ID()),
			zap.String("reason", result.Deferred.Reason))
		current = next
	}
}

// handleRupture runs the repair path: deterministic baseline, optional
// advisory enhancement behind the hard-AND gate, and a training record
// either way.
func (o *Orchestrator) handleRupture(ctx context.Context, input string, conv *types.ConversationContext, result rupture.Result) *Response {
	log := logging.Get(logging.CategoryRupture)
	log.Info("rupture detected",
		zap.String("category", string(result.Category)),
		zap.Float64("confidence", result.Confidence),
		zap.Strings("cues", result.MatchedCues))

	baseline := o.repairer.GenerateBaseline(result.Category)
	final := baseline

	var verdict *consult.Verdict
	if o.cfg.Consult.Enabled && o.advisor != nil {
		verdict = o.advisor.Consult(ctx, input, baseline, conv.RecentHistory, consult.IntentRuptureRepair)
	}
	enhanced := repair.AcceptEnhanced(verdict, o.cfg.Repair.MinConfidence)
	if enhanced && verdict.ImprovedText != "" {
		final = verdict.ImprovedText
	}

	o.recordRepair(input, conv, result, baseline, final, verdict)

	metadata := map[string]string{
		"rupture_category": string(result.Category),
		"repair_source":    "baseline",
	}
	if enhanced {
		metadata["repair_source"] = "enhanced"
	}

	o.witness(conv, input, final, "repair")
	return &Response{
		Success:   true,
		Response:  final,
		AgentID:   "repair",
		Dimension: "repair",
		Metadata:  metadata,
		Timestamp: time.Now(),
	}
}

// recordRepair appends the exchange to the training corpus. Best-effort:
// a full disk must not block the repair itself.
func (o *Orchestrator) recordRepair(input string, conv *types.ConversationContext, result rupture.Result, baseline, final string, verdict *consult.Verdict) {
	if o.training == nil {
		return
	}

	original := ""
	if last := conv.LastAgentTurn(); last != nil {
		original = last.Content
	}

	ex := training.Exchange{
		Timestamp:        time.Now(),
		RuptureCategory:  result.Category,
		UserSignal:       input,
		OriginalResponse: original,
		BaselineRepair:   baseline,
		FinalRepair:      final,
	}
	if verdict != nil {
		ex.Issues = verdict.Issues
		ex.Confidence = verdict.Confidence
	}
	_, ex.QualityTier = repair.ScoreQuality(final)

	if err := o.training.Append(ex); err != nil {
		logging.Get(logging.CategoryTraining).Warn("training append failed", zap.Error(err))
	}
}

// enrich attaches best-effort typology to the context. The profile is
// cached per user; enrichment never blocks or fails the turn.
func (o *Orchestrator) enrich(ctx context.Context, input string, conv *types.ConversationContext) {
	if !o.cfg.Orchestrator.TypologyEnabled || o.suite.Typology == nil {
		return
	}

	if o.cache == nil || conv.UserID == "" {
		conv.Enrichment.Typology = o.suite.Typology.Insight(input, conv)
		return
	}

	key := cache.Key("typology", conv.UserID)
	v, err := o.cache.GetOrSet(ctx, key, "typology", func(ctx context.Context) (any, error) {
		return o.suite.Typology.Insight(input, conv), nil
	})
	if err != nil {
		return
	}
	if insight, ok := v.(*types.TypologyInsight); ok && insight != nil {
		conv.Enrichment.Typology = insight
	}
}

// witness fire-and-forgets the exchange to the memory store. The write runs
// off the request path; a panicking or failing store is contained here.
func (o *Orchestrator) witness(conv *types.ConversationContext, input, response, agentID string) {
	if o.memory == nil || conv.UserID == "" {
		return
	}

	userID := conv.UserID
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Get(logging.CategoryMemory).Error("memory write panicked",
					zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		content := "[user] " + input + "\n[agent] " + response
		if _, err := o.memory.Write(ctx, userID, content, map[string]string{"agent": agentID}); err != nil {
			logging.Get(logging.CategoryMemory).Warn("memory write failed", zap.Error(err))
		}
	}()
}
