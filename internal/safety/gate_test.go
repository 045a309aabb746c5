package safety

import (
	"testing"
)

func TestAssess(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		input        string
		intervention bool
		severity     Severity
	}{
		{"critical", "sometimes I just want to die", true, SeverityCritical},
		{"critical_mixed_case", "I've been thinking about SUICIDE", true, SeverityCritical},
		{"elevated", "I feel completely hopeless about everything", true, SeverityElevated},
		{"none", "I had a rough day at work", false, SeverityNone},
		{"empty", "", false, SeverityNone},
	}

	c := NewClassifier()
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v := c.Assess(tc.input)
			if v.InterventionRequired != tc.intervention {
				t.Errorf("intervention=%v, want %v", v.InterventionRequired, tc.intervention)
			}
			if v.Severity != tc.severity {
				t.Errorf("severity=%s, want %s", v.Severity, tc.severity)
			}
			if tc.intervention && len(v.MatchedIndicators) == 0 {
				t.Error("intervention verdict must report matched indicators")
			}
		})
	}
}

func TestAssess_CriticalOutranksElevated(t *testing.T) {
	t.Parallel()

	c := NewClassifier()
	v := c.Assess("I can't go on, I want to die")
	if v.Severity != SeverityCritical {
		t.Errorf("critical indicator must win, got %s", v.Severity)
	}
}
