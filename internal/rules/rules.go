// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rules provides the deterministic negation and temporal-category
// annotators. Cue tables are package data so the matching behavior can be
// verified independently of the matching code. All matching is
// case-insensitive and on whole-word boundaries.
package rules

import (
	"regexp"
	"strings"

	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

// NegationCues are the phrases that mark a span as negated.
var NegationCues = []string{"no", "denies", "without", "negative for"}

// TemporalGroup pairs a temporal category with its cue phrases. Groups
// are evaluated in slice order; the first group with any match wins.
type TemporalGroup struct {
	Category types.TemporalCategory
	Cues     []string
}

// TemporalGroups defines the priority order: history before plan before
// current.
var TemporalGroups = []TemporalGroup{
	{types.TemporalHistory, []string{"history of", "prior", "previously"}},
	{types.TemporalPlan, []string{"plan", "will", "consider"}},
	{types.TemporalCurrent, []string{"today", "currently", "now"}},
}

var (
	negationRe  = compileCues(NegationCues)
	temporalRes = func() []*regexp.Regexp {
		res := make([]*regexp.Regexp, len(TemporalGroups))
		for i, g := range TemporalGroups {
			res[i] = compileCues(g.Cues)
		}
		return res
	}()
)

// compileCues builds a single case-insensitive whole-word alternation
// for a cue list, so "now" cannot match inside "known".
func compileCues(cues []string) *regexp.Regexp {
	quoted := make([]string, len(cues))
	for i, c := range cues {
		quoted[i] = regexp.QuoteMeta(c)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Negated reports whether any negation cue matches text.
func Negated(text string) bool {
	return negationRe.MatchString(text)
}

// Temporal returns the first temporal category (in priority order) with a
// matching cue, or false when none match.
func Temporal(text string) (types.TemporalCategory, bool) {
	for i, g := range TemporalGroups {
		if temporalRes[i].MatchString(text) {
			return g.Category, true
		}
	}
	return "", false
}
