// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble folds labeled entity spans into the fixed-shape
// clinical record. The output schema is closed: unknown labels are
// silently dropped, and assembly never fails.
package assemble

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

var (
	// labPairRe extracts name[:=]value numeric pairs from lab text.
	labPairRe = regexp.MustCompile(`([A-Za-z]+)\s*[:=]\s*([0-9.]+)`)

	// mapRe extracts a MAP reading: the keyword, an optional separator,
	// then digits.
	mapRe = regexp.MustCompile(`(?i)\bMAP\s*[:=]?\s*(\d+)`)

	// pressorCues are matched case-insensitively as substrings.
	pressorCues = []string{"norepi", "vaso"}
)

// Record folds entities, in order, into a StructuredRecord.
func Record(entities []types.EntitySpan) types.StructuredRecord {
	rec := types.EmptyRecord()
	for _, e := range entities {
		text := strings.TrimSpace(e.Text)
		switch e.Label {
		case types.EntityNeuroExam:
			rec.NeuroExam = joinFreeText(rec.NeuroExam, text)
		case types.EntityAssessment:
			rec.Assessment = joinFreeText(rec.Assessment, text)
		case types.EntityImaging:
			rec.Imaging = append(rec.Imaging, e.Text)
		case types.EntityMedication:
			rec.Medications = append(rec.Medications, e.Text)
		case types.EntityProcedure:
			rec.Procedures = append(rec.Procedures, e.Text)
		case types.EntityVent:
			rec.Vent.Raw = append(rec.Vent.Raw, e.Text)
		case types.EntityHemodynamics:
			foldHemodynamics(&rec.Hemodynamics, e.Text)
		case types.EntityLab:
			rec.Labs.Raw = append(rec.Labs.Raw, e.Text)
			for _, m := range labPairRe.FindAllStringSubmatch(e.Text, -1) {
				rec.Labs.Values[m[1]] = m[2]
			}
		}
	}
	return rec
}

func foldHemodynamics(h *types.HemodynamicsRecord, text string) {
	h.Raw = append(h.Raw, text)

	// Last MAP match wins, across entities and within one text.
	if matches := mapRe.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		if v, err := strconv.Atoi(matches[len(matches)-1][1]); err == nil {
			h.MAP = &v
		}
	}

	lowered := strings.ToLower(text)
	for _, cue := range pressorCues {
		if strings.Contains(lowered, cue) {
			h.Pressors = append(h.Pressors, text)
			break
		}
	}
}

func joinFreeText(acc, text string) string {
	if text == "" {
		return acc
	}
	if acc == "" {
		return text
	}
	return acc + " " + text
}
