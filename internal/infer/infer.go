// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package infer runs the full pipeline over raw note text: segmentation,
// sentence relevance scoring, entity recognition, rule annotation, and
// structured assembly. Missing models are degraded modes, not errors:
// the pipeline always completes and reports what it fell back to in the
// result's warnings.
package infer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pdiddy/mednote-cleaner/internal/assemble"
	"github.com/pdiddy/mednote-cleaner/internal/ner"
	"github.com/pdiddy/mednote-cleaner/internal/relevance"
	"github.com/pdiddy/mednote-cleaner/internal/rules"
	"github.com/pdiddy/mednote-cleaner/internal/segment"
	"github.com/pdiddy/mednote-cleaner/internal/store"
	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

// DefaultKeepThreshold is the minimum keep probability for a sentence to
// survive into cleaned output when the caller does not supply one.
const DefaultKeepThreshold = 0.5

// Degraded-mode notices, emitted in this order.
const (
	WarnDefaultKeep = "No trained model found. Using default KEEP for all sentences."
	WarnEmptyNER    = "No NER model found. Structured extraction may be empty."
)

// Storage resolves model versions; narrowed so tests can supply a fake.
type Storage interface {
	ModelVersion(ctx context.Context, id string) (types.ModelVersion, error)
	LatestModelVersion(ctx context.Context) (types.ModelVersion, error)
}

// Options selects the model version and keep threshold for a run.
type Options struct {
	// ModelVersionID pins a version; empty means most recently created.
	ModelVersionID string

	// KeepThreshold overrides DefaultKeepThreshold when positive.
	KeepThreshold float64
}

// Engine orchestrates inference. Loaded artifacts are cached per version
// id for the process lifetime; model versions are immutable so entries
// never invalidate.
type Engine struct {
	store Storage

	mu    sync.Mutex
	cache map[string]*resolved
}

// resolved is the outcome of model resolution. Each sub-model is either
// loaded or unavailable; unavailable sub-models put the pipeline in the
// corresponding degraded mode.
type resolved struct {
	versionID  string
	sentences  *relevance.Model // nil: default-keep degraded mode
	recognizer *ner.Recognizer  // nil or untrained: empty-NER degraded mode
}

func (r *resolved) sentencesAvailable() bool {
	return r.sentences != nil
}

func (r *resolved) recognizerAvailable() bool {
	return r.recognizer != nil && r.recognizer.Trained
}

// NewEngine returns an engine reading model versions from st.
func NewEngine(st Storage) *Engine {
	return &Engine{store: st, cache: map[string]*resolved{}}
}

// Run executes the pipeline over one text. It always returns a result;
// only storage or artifact I/O failures are errors.
func (e *Engine) Run(ctx context.Context, text string, opts Options) (types.InferenceResult, error) {
	models, err := e.resolve(ctx, opts.ModelVersionID)
	if err != nil {
		return types.InferenceResult{}, err
	}
	return e.run(text, opts, models), nil
}

// RunBatch executes the pipeline independently over each text, returning
// exactly one result per input in input order.
func (e *Engine) RunBatch(ctx context.Context, texts []string, opts Options) ([]types.InferenceResult, error) {
	models, err := e.resolve(ctx, opts.ModelVersionID)
	if err != nil {
		return nil, err
	}
	results := make([]types.InferenceResult, len(texts))
	for i, text := range texts {
		results[i] = e.run(text, opts, models)
	}
	return results, nil
}

func (e *Engine) run(text string, opts Options, models *resolved) types.InferenceResult {
	threshold := opts.KeepThreshold
	if threshold <= 0 {
		threshold = DefaultKeepThreshold
	}

	spans := segment.Split(text)
	warnings := []string{}

	var probs []float64
	if models.sentencesAvailable() {
		texts := make([]string, len(spans))
		for i, s := range spans {
			texts[i] = s.Text
		}
		probs = models.sentences.Probabilities(texts)
	} else {
		warnings = append(warnings, WarnDefaultKeep)
		probs = make([]float64, len(spans))
		for i := range probs {
			probs[i] = 1.0
		}
	}

	keepProbs := make([]types.SentenceKeepProb, len(spans))
	var kept []string
	for i, s := range spans {
		keepProbs[i] = types.SentenceKeepProb{Sentence: s.Text, ProbKeep: probs[i]}
		if probs[i] >= threshold {
			if t := strings.TrimSpace(text[s.StartChar:s.EndChar]); t != "" {
				kept = append(kept, t)
			}
		}
	}

	var entities []types.EntitySpan
	if models.recognizerAvailable() {
		for _, ent := range models.recognizer.Predict(text) {
			ent.Negated = rules.Negated(ent.Text)
			ent.Temporal, _ = rules.Temporal(ent.Text)
			entities = append(entities, ent)
		}
	} else {
		warnings = append(warnings, WarnEmptyNER)
	}

	return types.InferenceResult{
		CleanedText: strings.Join(kept, "\n"),
		Structured:  assemble.Record(entities),
		Confidence: types.Confidence{
			SentenceKeepProbs: keepProbs,
			Entities:          entities,
		},
		Warnings: warnings,
		Meta: types.InferenceMeta{
			ModelVersionID:     models.versionID,
			KeepThreshold:      threshold,
			KeptSentenceCount:  len(kept),
			TotalSentenceCount: len(spans),
		},
	}
}

// resolve picks the model version (explicit id, else latest, else none)
// and loads its artifacts through the cache. No versions at all is full
// degraded mode, not an error; an explicit id that does not exist is.
func (e *Engine) resolve(ctx context.Context, versionID string) (*resolved, error) {
	var mv types.ModelVersion
	var err error
	if versionID != "" {
		mv, err = e.store.ModelVersion(ctx, versionID)
		if err != nil {
			return nil, err
		}
	} else {
		mv, err = e.store.LatestModelVersion(ctx)
		if errors.Is(err, store.ErrModelVersionNotFound) {
			return &resolved{}, nil
		}
		if err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if cached, ok := e.cache[mv.ID]; ok {
		return cached, nil
	}

	sentences, err := relevance.Load(mv.SentenceModelPath)
	if err != nil {
		return nil, fmt.Errorf("loading sentence model for version %s: %w", mv.ID, err)
	}
	recognizer, err := ner.Load(mv.NERModelPath)
	if err != nil {
		return nil, fmt.Errorf("loading recognizer for version %s: %w", mv.ID, err)
	}

	r := &resolved{versionID: mv.ID, sentences: sentences, recognizer: recognizer}
	e.cache[mv.ID] = r
	return r, nil
}
