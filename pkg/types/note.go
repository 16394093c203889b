// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the note-cleaning
// pipeline: notes, sentence and entity spans, model versions, and the
// per-component configuration groups.
package types

// SentenceLabel is a reviewer's verdict on a sentence.
type SentenceLabel string

const (
	// LabelKeep marks a sentence as clinically relevant.
	LabelKeep SentenceLabel = "KEEP"

	// LabelRemove marks a sentence as noise to drop from cleaned output.
	LabelRemove SentenceLabel = "REMOVE"
)

// SentenceSpan is one segmented sentence addressed by byte offsets into
// the note text it came from. Idx is dense and contiguous over the kept
// (non-empty) sentences of a note.
type SentenceSpan struct {
	Idx       int    `json:"idx" yaml:"idx"`
	Text      string `json:"text" yaml:"text"`
	StartChar int    `json:"start_char" yaml:"start_char"`
	EndChar   int    `json:"end_char" yaml:"end_char"`
}

// EntityLabel is a clinical category assigned to a text span.
type EntityLabel string

const (
	EntityNeuroExam    EntityLabel = "NEURO_EXAM"
	EntityImaging      EntityLabel = "IMAGING"
	EntityVent         EntityLabel = "VENT"
	EntityHemodynamics EntityLabel = "HEMODYNAMICS"
	EntityLab          EntityLabel = "LAB"
	EntityMedication   EntityLabel = "MEDICATION"
	EntityProcedure    EntityLabel = "PROCEDURE"
	EntityAssessment   EntityLabel = "ASSESSMENT"
)

// TemporalCategory situates a finding in time. The empty string means no
// temporal cue matched.
type TemporalCategory string

const (
	TemporalHistory TemporalCategory = "history"
	TemporalPlan    TemporalCategory = "plan"
	TemporalCurrent TemporalCategory = "current"
)

// EntitySpan is a labeled span emitted by the entity recognizer and
// annotated by the rule annotators. Offsets are byte offsets into the
// raw text the span was recognized in.
type EntitySpan struct {
	Label     EntityLabel      `json:"label" yaml:"label"`
	Text      string           `json:"text" yaml:"text"`
	StartChar int              `json:"start_char" yaml:"start_char"`
	EndChar   int              `json:"end_char" yaml:"end_char"`
	Prob      float64          `json:"prob" yaml:"prob"`
	Negated   bool             `json:"negated" yaml:"negated"`
	Temporal  TemporalCategory `json:"temporal,omitempty" yaml:"temporal,omitempty"`
}

// Note is a stored clinical note.
type Note struct {
	ID        string            `json:"id" yaml:"id"`
	CreatedAt string            `json:"created_at" yaml:"created_at"`
	Source    string            `json:"source" yaml:"source"`
	RawText   string            `json:"raw_text" yaml:"raw_text"`
	Meta      map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Sentence is a persisted sentence span tied to its note.
type Sentence struct {
	ID     string `json:"id" yaml:"id"`
	NoteID string `json:"note_id" yaml:"note_id"`
	SentenceSpan
}

// SpanAnnotation is a reviewer-supplied gold entity span over a note.
// Negation and temporal category are computed once at write time.
type SpanAnnotation struct {
	ID        string           `json:"id" yaml:"id"`
	NoteID    string           `json:"note_id" yaml:"note_id"`
	Label     EntityLabel      `json:"label" yaml:"label"`
	StartChar int              `json:"start_char" yaml:"start_char"`
	EndChar   int              `json:"end_char" yaml:"end_char"`
	Text      string           `json:"text" yaml:"text"`
	Negated   bool             `json:"negated" yaml:"negated"`
	Temporal  TemporalCategory `json:"temporal,omitempty" yaml:"temporal,omitempty"`
	CreatedAt string           `json:"created_at" yaml:"created_at"`
}
