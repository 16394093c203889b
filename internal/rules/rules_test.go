package rules

import (
	"testing"

	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

func TestNegated(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"No focal deficit", true},
		{"no acute distress", true},
		{"Denies chest pain", true},
		{"extubated without difficulty", true},
		{"negative for DVT", true},
		{"NEGATIVE FOR infection", true},
		{"known history of CHF", false}, // "no" must not match inside "known"
		{"notable improvement", false},
		{"patient is nodding", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Negated(tt.text); got != tt.want {
			t.Errorf("Negated(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestTemporal(t *testing.T) {
	tests := []struct {
		text    string
		want    types.TemporalCategory
		matched bool
	}{
		{"history of atrial fibrillation", types.TemporalHistory, true},
		{"prior stroke", types.TemporalHistory, true},
		{"previously intubated", types.TemporalHistory, true},
		{"plan to wean sedation", types.TemporalPlan, true},
		{"will repeat CT in am", types.TemporalPlan, true},
		{"consider bronchoscopy", types.TemporalPlan, true},
		{"afebrile today", types.TemporalCurrent, true},
		{"currently on propofol", types.TemporalCurrent, true},
		{"stable now", types.TemporalCurrent, true},
		{"known aneurysm", "", false}, // "now" must not match inside "known"
		{"willingness noted", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Temporal(tt.text)
		if ok != tt.matched || got != tt.want {
			t.Errorf("Temporal(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.matched)
		}
	}
}

// A text matching both a history and a plan cue resolves to history:
// groups are evaluated in priority order, first match wins.
func TestTemporalPriority(t *testing.T) {
	got, ok := Temporal("history of seizures, plan to restart keppra")
	if !ok || got != types.TemporalHistory {
		t.Fatalf("got (%q, %v), want history", got, ok)
	}
	got, ok = Temporal("plan to diurese, reassess today")
	if !ok || got != types.TemporalPlan {
		t.Fatalf("got (%q, %v), want plan", got, ok)
	}
}
