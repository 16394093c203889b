// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// VentRecord collects ventilator-setting fragments verbatim.
type VentRecord struct {
	Raw []string `json:"raw" yaml:"raw"`
}

// HemodynamicsRecord collects hemodynamics fragments plus the extracted
// canonical MAP value and pressor mentions.
type HemodynamicsRecord struct {
	Pressors []string `json:"pressors" yaml:"pressors"`
	MAP      *int     `json:"map" yaml:"map"`
	Raw      []string `json:"raw" yaml:"raw"`
}

// LabRecord collects lab fragments plus extracted name/value pairs.
type LabRecord struct {
	Values map[string]string `json:"values" yaml:"values"`
	Raw    []string          `json:"raw" yaml:"raw"`
}

// StructuredRecord is the fixed-shape clinical extraction. The key set is
// closed: entity labels outside the known set are dropped, never added as
// new keys.
type StructuredRecord struct {
	NeuroExam    string             `json:"neuro_exam" yaml:"neuro_exam"`
	Imaging      []string           `json:"imaging" yaml:"imaging"`
	Vent         VentRecord         `json:"vent" yaml:"vent"`
	Hemodynamics HemodynamicsRecord `json:"hemodynamics" yaml:"hemodynamics"`
	Labs         LabRecord          `json:"labs" yaml:"labs"`
	Medications  []string           `json:"medications" yaml:"medications"`
	Procedures   []string           `json:"procedures" yaml:"procedures"`
	Assessment   string             `json:"assessment" yaml:"assessment"`
}

// EmptyRecord returns the empty-shaped default record with all lists and
// maps initialized, so serialized output carries the full key set.
func EmptyRecord() StructuredRecord {
	return StructuredRecord{
		Imaging:      []string{},
		Vent:         VentRecord{Raw: []string{}},
		Hemodynamics: HemodynamicsRecord{Pressors: []string{}, Raw: []string{}},
		Labs:         LabRecord{Values: map[string]string{}, Raw: []string{}},
		Medications:  []string{},
		Procedures:   []string{},
	}
}

// SentenceKeepProb pairs a segmented sentence with its keep probability.
type SentenceKeepProb struct {
	Sentence string  `json:"sentence" yaml:"sentence"`
	ProbKeep float64 `json:"prob_keep" yaml:"prob_keep"`
}

// Confidence is the per-sentence and per-entity confidence trace of one
// inference run.
type Confidence struct {
	SentenceKeepProbs []SentenceKeepProb `json:"sentence_keep_probs" yaml:"sentence_keep_probs"`
	Entities          []EntitySpan       `json:"entities" yaml:"entities"`
}

// InferenceMeta describes how a result was produced.
type InferenceMeta struct {
	ModelVersionID     string  `json:"model_version_id,omitempty" yaml:"model_version_id,omitempty"`
	KeepThreshold      float64 `json:"keep_threshold" yaml:"keep_threshold"`
	KeptSentenceCount  int     `json:"kept_sentence_count" yaml:"kept_sentence_count"`
	TotalSentenceCount int     `json:"total_sentence_count" yaml:"total_sentence_count"`
}

// InferenceResult is the complete output of one inference call. Warnings
// list degraded-mode notices in the order they were hit.
type InferenceResult struct {
	CleanedText string           `json:"cleaned_text" yaml:"cleaned_text"`
	Structured  StructuredRecord `json:"structured_json" yaml:"structured_json"`
	Confidence  Confidence       `json:"confidence" yaml:"confidence"`
	Warnings    []string         `json:"warnings" yaml:"warnings"`
	Meta        InferenceMeta    `json:"meta" yaml:"meta"`
}

// Stats summarizes labeling progress for the dashboard.
type Stats struct {
	Notes            int               `json:"notes" yaml:"notes"`
	Models           int               `json:"models" yaml:"models"`
	TotalSentences   int               `json:"total_sentences" yaml:"total_sentences"`
	LabeledSentences int               `json:"labeled_sentences" yaml:"labeled_sentences"`
	SpanAnnotations  int               `json:"span_annotations" yaml:"span_annotations"`
	LabelingHistory  []LabelingHistory `json:"labeling_history" yaml:"labeling_history"`
}

// LabelingHistory is one day's label count.
type LabelingHistory struct {
	Day   string `json:"day" yaml:"day"`
	Count int    `json:"count" yaml:"count"`
}
