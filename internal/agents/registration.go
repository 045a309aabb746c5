package agents

import (
	"attune/internal/types"
)

// Suite is the standard agent ensemble plus the routing order the
// orchestrator walks. Gate order is fixed: witness before mirror, mirror
// before timing, multi-voice agents last before the default.
type Suite struct {
	Registry *Registry
	Gated    []types.RoutedAgent
	Typology *TypologyAgent
	Default  types.Agent
	Crisis   types.Agent
}

// NewSuite wires the default ensemble around one LLM client and an
// optional recall store.
func NewSuite(client types.LLMClient, recaller Recaller) *Suite {
	companion := NewCompanionAgent(client)
	crisis := NewCrisisAgent()
	witness := NewWitnessAgent(recaller)
	mirror := NewMirrorAgent()
	timing := NewTimingAgent()
	typology := NewTypologyAgent()
	triad := NewTriadAgent(witness, mirror, timing)
	pair := NewPairAgent(witness, mirror)

	reg := NewRegistry()
	for _, a := range []types.Agent{companion, crisis, witness, mirror, timing, typology, triad, pair} {
		reg.Register(a)
	}

	return &Suite{
		Registry: reg,
		Gated:    []types.RoutedAgent{witness, mirror, timing, triad, pair},
		Typology: typology,
		Default:  companion,
		Crisis:   crisis,
	}
}
