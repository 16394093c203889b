// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SentenceMetrics reports the relevance classifier's held-out validation
// figures.
type SentenceMetrics struct {
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`
	F1       float64 `json:"f1" yaml:"f1"`
}

// LabelMetrics reports precision/recall/F1 for one entity label.
type LabelMetrics struct {
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
}

// NERMetrics reports per-label figures for the entity recognizer.
// These are computed against the recognizer's own training documents
// (there is no held-out split for NER), so they measure training fit,
// not validation performance.
type NERMetrics struct {
	PerLabel map[string]LabelMetrics `json:"per_label" yaml:"per_label"`
}

// Metrics aggregates both sub-models' training metrics.
type Metrics struct {
	Sentence SentenceMetrics `json:"sentence" yaml:"sentence"`
	NER      NERMetrics      `json:"ner" yaml:"ner"`
}

// TrainingConfig is the caller-supplied training configuration, recorded
// verbatim on the resulting model version.
type TrainingConfig struct {
	// MaxSteps bounds the optimization iterations for both sub-models.
	MaxSteps int `json:"max_steps" yaml:"max_steps"`

	// LearnRate is the gradient-descent step size for the relevance
	// classifier.
	LearnRate float64 `json:"lr" yaml:"lr"`

	// BaseModel identifies the starting model (currently only "en").
	BaseModel string `json:"base_model" yaml:"base_model"`
}

// ModelVersion is one immutable trained artifact pair plus its metrics.
// The most recently created version is the implicit default for
// inference.
type ModelVersion struct {
	ID                string         `json:"id" yaml:"id"`
	CreatedAt         string         `json:"created_at" yaml:"created_at"`
	SentenceModelPath string         `json:"sentence_model_path" yaml:"sentence_model_path"`
	NERModelPath      string         `json:"ner_model_path" yaml:"ner_model_path"`
	Metrics           Metrics        `json:"metrics" yaml:"metrics"`
	Config            TrainingConfig `json:"training_config" yaml:"training_config"`
}
