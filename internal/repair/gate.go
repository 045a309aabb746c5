package repair

import (
	"attune/internal/consult"
)

// DefaultMinConfidence is the acceptance threshold when none is configured.
const DefaultMinConfidence = 0.7

// AcceptEnhanced decides whether an advisory verdict may replace the
// baseline repair. All four invariants must hold — a hard AND, no partial
// credit: a high-confidence suggestion that breaks sovereignty is worse
// than the known-safe template.
func AcceptEnhanced(v *consult.Verdict, minConfidence float64) bool {
	if v == nil {
		return false
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return v.Confidence >= minConfidence &&
		v.RepairNeeded &&
		v.SovereigntyPreserved &&
		v.RelationshipStrengthened
}
