// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package train orchestrates one training run: it reads labeled data
// from storage, fits the relevance classifier and the entity recognizer,
// computes metrics, and persists a new immutable model version. A run
// either persists everything (both artifacts plus the version row) or
// nothing.
package train

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/mednote-cleaner/internal/ner"
	"github.com/pdiddy/mednote-cleaner/internal/relevance"
	"github.com/pdiddy/mednote-cleaner/internal/store"
	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

// Storage is the slice of the store the orchestrator needs; narrowed so
// tests can supply a fake.
type Storage interface {
	LabeledSentences(ctx context.Context) ([]store.LabeledSentence, error)
	AllNotes(ctx context.Context) ([]types.Note, error)
	SpanAnnotations(ctx context.Context) ([]types.SpanAnnotation, error)
	CreateModelVersion(ctx context.Context, mv types.ModelVersion) error
}

// Result is the outcome of a successful run.
type Result struct {
	ModelVersionID string        `json:"model_version_id"`
	Metrics        types.Metrics `json:"metrics"`
}

// Run executes one full training pass and persists the model version.
// It fails before any model is fit when the labeled sentences are
// insufficient (relevance.ErrTrainingDataInsufficient).
func Run(ctx context.Context, st Storage, modelsDir string, cfg types.TrainingConfig, w io.Writer) (Result, error) {
	labeled, err := st.LabeledSentences(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading labeled sentences: %w", err)
	}
	if len(labeled) < relevance.MinExamples {
		return Result{}, relevance.ErrTrainingDataInsufficient
	}

	texts := make([]string, len(labeled))
	labels := make([]int, len(labeled))
	for i, ls := range labeled {
		texts[i] = ls.Text
		if ls.Label == types.LabelKeep {
			labels[i] = 1
		}
	}

	fmt.Fprintf(w, "training relevance classifier on %d sentences\n", len(labeled))
	sentModel, validation, err := relevance.Train(texts, labels, cfg.MaxSteps, cfg.LearnRate)
	if err != nil {
		return Result{}, err
	}
	fmt.Fprintf(w, "relevance validation: accuracy=%.3f f1=%.3f\n", validation.Accuracy, validation.F1)

	docs, err := trainingDocuments(ctx, st)
	if err != nil {
		return Result{}, err
	}
	fmt.Fprintf(w, "training entity recognizer on %d documents\n", len(docs))
	recognizer := ner.Train(docs, cfg.MaxSteps)

	metrics := types.Metrics{
		Sentence: types.SentenceMetrics{Accuracy: validation.Accuracy, F1: validation.F1},
		NER:      types.NERMetrics{PerLabel: map[string]types.LabelMetrics{}},
	}
	if recognizer.Trained {
		metrics.NER.PerLabel = recognizer.Evaluate(docs)
	}

	mv := types.ModelVersion{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Metrics:   metrics,
		Config:    cfg,
	}
	mv.SentenceModelPath = filepath.Join(modelsDir, "sentence_"+mv.ID+".gob")
	mv.NERModelPath = filepath.Join(modelsDir, "ner_"+mv.ID+".gob")

	if err := persist(ctx, st, mv, sentModel, recognizer); err != nil {
		return Result{}, err
	}
	fmt.Fprintf(w, "model version %s persisted\n", mv.ID)

	return Result{ModelVersionID: mv.ID, Metrics: metrics}, nil
}

// persist writes both artifacts and then the version row. Any failure
// removes whatever was written so no partial version is observable.
func persist(ctx context.Context, st Storage, mv types.ModelVersion, sentModel *relevance.Model, recognizer *ner.Recognizer) error {
	if err := sentModel.Save(mv.SentenceModelPath); err != nil {
		os.Remove(mv.SentenceModelPath)
		return err
	}
	if err := recognizer.Save(mv.NERModelPath); err != nil {
		os.Remove(mv.SentenceModelPath)
		os.Remove(mv.NERModelPath)
		return err
	}
	if err := st.CreateModelVersion(ctx, mv); err != nil {
		os.Remove(mv.SentenceModelPath)
		os.Remove(mv.NERModelPath)
		return fmt.Errorf("recording model version: %w", err)
	}
	return nil
}

// trainingDocuments groups span annotations by note. Notes without
// spans are kept here and filtered inside the recognizer, which owns
// that rule.
func trainingDocuments(ctx context.Context, st Storage) ([]ner.Document, error) {
	notes, err := st.AllNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading notes: %w", err)
	}
	spans, err := st.SpanAnnotations(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading span annotations: %w", err)
	}

	byNote := map[string][]ner.Span{}
	for _, sp := range spans {
		byNote[sp.NoteID] = append(byNote[sp.NoteID], ner.Span{
			StartChar: sp.StartChar,
			EndChar:   sp.EndChar,
			Label:     sp.Label,
		})
	}

	docs := make([]ner.Document, 0, len(notes))
	for _, n := range notes {
		docs = append(docs, ner.Document{Text: n.RawText, Spans: byNote[n.ID]})
	}
	return docs, nil
}
