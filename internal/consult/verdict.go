// Package consult implements the single-round-trip advisory consultation:
// it sends (user input, candidate draft, recent context, intent) to the
// external advisory LLM and decodes its free-form reply into a structured
// verdict. Any failure — timeout, malformed payload, missing fields — fails
// closed to a nil verdict; the caller falls back to the baseline repair.
package consult

import (
	"encoding/json"
	"strings"
)

// DepthLevel estimates how deep the relational issue runs.
type DepthLevel string

const (
	DepthShallow DepthLevel = "shallow"
	DepthCore    DepthLevel = "core"
	DepthDeep    DepthLevel = "deep"
)

// Intensity estimates the emotional charge of the exchange.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Verdict is the advisory service's critique of a draft response. Produced
// by a single external call; never retried on malformed output.
type Verdict struct {
	ImprovedText             string
	Issues                   []string
	RepairNeeded             bool
	RepairHint               string
	DepthLevel               DepthLevel // empty when unspecified or invalid
	Intensity                Intensity  // empty when unspecified or invalid
	SovereigntyPreserved     bool
	RelationshipStrengthened bool
	Confidence               float64
}

// verdictWire is the strict field set the advisory backend must produce.
// Booleans that need a non-false default decode through pointers so absence
// is distinguishable from an explicit false.
type verdictWire struct {
	ImprovedText             string   `json:"improved_text"`
	Issues                   []string `json:"issues"`
	RepairNeeded             bool     `json:"repair_needed"`
	RepairHint               string   `json:"repair_hint"`
	DepthLevel               string   `json:"depth_level"`
	Intensity                string   `json:"intensity"`
	SovereigntyPreserved     *bool    `json:"sovereignty_preserved"`
	RelationshipStrengthened bool     `json:"relationship_strengthened"`
	Confidence               float64  `json:"confidence"`
}

// ParseVerdict decodes raw advisory output. Formatting fences are stripped
// in a single normalization pass before the strict decode; if that fails, a
// byte-level scan extracts embedded JSON object candidates. Returns nil if
// nothing decodes — never an error, the contract is fail-closed.
func ParseVerdict(raw string) *Verdict {
	normalized := stripFences(raw)

	if v := decodeVerdict(normalized); v != nil {
		return v
	}
	for _, candidate := range scanObjects(normalized) {
		if v := decodeVerdict(candidate); v != nil {
			return v
		}
	}
	return nil
}

func decodeVerdict(s string) *Verdict {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '{' {
		return nil
	}

	var wire verdictWire
	if err := json.Unmarshal([]byte(s), &wire); err != nil {
		return nil
	}
	return normalize(wire)
}

// normalize coerces out-of-enum values to safe defaults: invalid depth or
// intensity is dropped to unspecified, sovereignty defaults to preserved
// unless the backend explicitly said false, and confidence is clamped to
// [0,1].
func normalize(wire verdictWire) *Verdict {
	v := &Verdict{
		ImprovedText:             strings.TrimSpace(wire.ImprovedText),
		Issues:                   wire.Issues,
		RepairNeeded:             wire.RepairNeeded,
		RepairHint:               strings.TrimSpace(wire.RepairHint),
		RelationshipStrengthened: wire.RelationshipStrengthened,
		Confidence:               clamp01(wire.Confidence),
		SovereigntyPreserved:     true,
	}
	if wire.SovereigntyPreserved != nil {
		v.SovereigntyPreserved = *wire.SovereigntyPreserved
	}

	switch DepthLevel(wire.DepthLevel) {
	case DepthShallow, DepthCore, DepthDeep:
		v.DepthLevel = DepthLevel(wire.DepthLevel)
	}
	switch Intensity(wire.Intensity) {
	case IntensityLow, IntensityMedium, IntensityHigh:
		v.Intensity = Intensity(wire.Intensity)
	}
	return v
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// stripFences removes known markdown fence markers around a payload. One
// normalization pass, not a retry loop.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```JSON", "```"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// scanObjects pulls balanced {...} spans out of prose. Advisory backends
// sometimes wrap their JSON in commentary despite the schema instruction;
// each span the brace-tracking scan yields is a decode candidate. Brace and
// quote bytes are unambiguous in UTF-8, so a byte walk suffices.
func scanObjects(s string) []string {
	var spans []string
	nesting := 0
	objStart := -1
	quoted := false
	escaped := false

	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case quoted:
			switch s[i] {
			case '\\':
				escaped = true
			case '"':
				quoted = false
			}
		case s[i] == '"':
			quoted = true
		case s[i] == '{':
			if nesting == 0 {
				objStart = i
			}
			nesting++
		case s[i] == '}' && nesting > 0:
			nesting--
			if nesting == 0 && objStart >= 0 {
				spans = append(spans, s[objStart:i+1])
				objStart = -1
			}
		}
	}
	return spans
}
