package consult

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPayload = `{
  "improved_text": "I hear you. I missed what mattered there, and I'm sorry.",
  "issues": ["draft was generic"],
  "repair_needed": true,
  "repair_hint": "name the miss",
  "depth_level": "core",
  "intensity": "high",
  "sovereignty_preserved": true,
  "relationship_strengthened": true,
  "confidence": 0.88
}`

func TestParseVerdict_Direct(t *testing.T) {
	t.Parallel()

	v := ParseVerdict(validPayload)
	require.NotNil(t, v)
	assert.Equal(t, "I hear you. I missed what mattered there, and I'm sorry.", v.ImprovedText)
	assert.True(t, v.RepairNeeded)
	assert.Equal(t, DepthCore, v.DepthLevel)
	assert.Equal(t, IntensityHigh, v.Intensity)
	assert.True(t, v.SovereigntyPreserved)
	assert.True(t, v.RelationshipStrengthened)
	assert.Equal(t, 0.88, v.Confidence)
}

func TestParseVerdict_FencedPayload(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{"json_fence", "```json\n" + validPayload + "\n```"},
		{"bare_fence", "```\n" + validPayload + "\n```"},
		{"upper_fence", "```JSON\n" + validPayload + "\n```"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v := ParseVerdict(tc.raw)
			require.NotNil(t, v)
			assert.Equal(t, 0.88, v.Confidence)
		})
	}
}

func TestParseVerdict_EmbeddedInProse(t *testing.T) {
	t.Parallel()

	raw := "Here is my assessment of the draft:\n" + validPayload + "\nHope that helps!"
	v := ParseVerdict(raw)
	require.NotNil(t, v)
	assert.True(t, v.RepairNeeded)
}

func TestParseVerdict_FailsClosed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose_only", "I think the draft is fine as written."},
		{"truncated", `{"improved_text": "x", "confidence":`},
		{"array", `[1, 2, 3]`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Nil(t, ParseVerdict(tc.raw))
		})
	}
}

func TestParseVerdict_Coercions(t *testing.T) {
	t.Parallel()

	// Invalid enums drop to unspecified; absent sovereignty defaults true;
	// confidence is clamped.
	v := ParseVerdict(`{
	  "improved_text": "x",
	  "repair_needed": true,
	  "depth_level": "bottomless",
	  "intensity": "apocalyptic",
	  "relationship_strengthened": true,
	  "confidence": 1.7
	}`)
	require.NotNil(t, v)
	assert.Empty(t, string(v.DepthLevel))
	assert.Empty(t, string(v.Intensity))
	assert.True(t, v.SovereigntyPreserved)
	assert.Equal(t, 1.0, v.Confidence)

	// Explicit false sovereignty is honored.
	v = ParseVerdict(`{"improved_text": "x", "sovereignty_preserved": false, "confidence": 0.9}`)
	require.NotNil(t, v)
	assert.False(t, v.SovereigntyPreserved)

	// Negative confidence clamps to zero.
	v = ParseVerdict(`{"improved_text": "x", "confidence": -0.2}`)
	require.NotNil(t, v)
	assert.Equal(t, 0.0, v.Confidence)
}

func TestScanObjects(t *testing.T) {
	t.Parallel()

	s := `noise {"a": {"nested": "}"}} more {"b": 2}`
	got := scanObjects(s)
	require.Len(t, got, 2)
	assert.Equal(t, `{"a": {"nested": "}"}}`, got[0])
	assert.Equal(t, `{"b": 2}`, got[1])
}

func TestScanObjects_EscapedQuote(t *testing.T) {
	t.Parallel()

	s := `{"a": "quote \" brace }"}`
	got := scanObjects(s)
	require.Len(t, got, 1)
	assert.Equal(t, s, got[0])
}
