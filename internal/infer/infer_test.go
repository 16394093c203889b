package infer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/mednote-cleaner/internal/ner"
	"github.com/pdiddy/mednote-cleaner/internal/relevance"
	"github.com/pdiddy/mednote-cleaner/internal/store"
	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

// fakeStorage serves zero or one model version.
type fakeStorage struct {
	version *types.ModelVersion
}

func (f *fakeStorage) ModelVersion(_ context.Context, id string) (types.ModelVersion, error) {
	if f.version != nil && f.version.ID == id {
		return *f.version, nil
	}
	return types.ModelVersion{}, store.ErrModelVersionNotFound
}

func (f *fakeStorage) LatestModelVersion(context.Context) (types.ModelVersion, error) {
	if f.version != nil {
		return *f.version, nil
	}
	return types.ModelVersion{}, store.ErrModelVersionNotFound
}

// trainedStorage fits both sub-models on a small corpus and stages their
// artifacts under a temp dir.
func trainedStorage(t *testing.T) *fakeStorage {
	t.Helper()

	texts := []string{
		"MAP 70 on norepi",
		"MAP 65 on norepi drip",
		"No focal deficit",
		"No focal deficit noted",
		"CT head negative for bleed",
		"Family meeting scheduled",
		"Lunch tray delivered",
		"Lunch tray delivered late",
		"Television repaired",
		"Chaplain visited briefly",
	}
	labels := []int{1, 1, 1, 1, 1, 0, 0, 0, 0, 0}
	sentModel, _, err := relevance.Train(texts, labels, 300, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	recognizer := ner.Train([]ner.Document{
		{
			Text: "MAP 70 on norepi. No focal deficit.",
			Spans: []ner.Span{
				{StartChar: 0, EndChar: 16, Label: types.EntityHemodynamics},
				{StartChar: 18, EndChar: 34, Label: types.EntityNeuroExam},
			},
		},
		{
			Text: "MAP 65 on norepi. Pupils equal.",
			Spans: []ner.Span{
				{StartChar: 0, EndChar: 16, Label: types.EntityHemodynamics},
				{StartChar: 18, EndChar: 30, Label: types.EntityNeuroExam},
			},
		},
	}, 30)

	dir := t.TempDir()
	mv := &types.ModelVersion{
		ID:                "test-version",
		CreatedAt:         "2026-01-01T00:00:00Z",
		SentenceModelPath: filepath.Join(dir, "sentence.gob"),
		NERModelPath:      filepath.Join(dir, "ner.gob"),
	}
	if err := sentModel.Save(mv.SentenceModelPath); err != nil {
		t.Fatal(err)
	}
	if err := recognizer.Save(mv.NERModelPath); err != nil {
		t.Fatal(err)
	}
	return &fakeStorage{version: mv}
}

func TestRunFullyDegraded(t *testing.T) {
	engine := NewEngine(&fakeStorage{})
	text := "MAP 70 on norepi. No focal deficit."

	res, err := engine.Run(context.Background(), text, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Warnings) != 2 || res.Warnings[0] != WarnDefaultKeep || res.Warnings[1] != WarnEmptyNER {
		t.Errorf("warnings = %v", res.Warnings)
	}
	want := "MAP 70 on norepi.\nNo focal deficit."
	if res.CleanedText != want {
		t.Errorf("cleaned = %q, want %q", res.CleanedText, want)
	}
	if res.Structured.NeuroExam != "" || len(res.Structured.Hemodynamics.Raw) != 0 || res.Structured.Hemodynamics.MAP != nil {
		t.Errorf("structured record not empty-shaped: %+v", res.Structured)
	}
	if res.Meta.ModelVersionID != "" {
		t.Errorf("meta version = %q", res.Meta.ModelVersionID)
	}
	if res.Meta.KeepThreshold != DefaultKeepThreshold {
		t.Errorf("threshold = %v", res.Meta.KeepThreshold)
	}
	if res.Meta.KeptSentenceCount != 2 || res.Meta.TotalSentenceCount != 2 {
		t.Errorf("meta counts = %+v", res.Meta)
	}
	for _, kp := range res.Confidence.SentenceKeepProbs {
		if kp.ProbKeep != 1.0 {
			t.Errorf("degraded keep prob = %v", kp.ProbKeep)
		}
	}
}

func TestRunEndToEnd(t *testing.T) {
	engine := NewEngine(trainedStorage(t))
	text := "MAP 70 on norepi. No focal deficit."

	res, err := engine.Run(context.Background(), text, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if res.Meta.ModelVersionID != "test-version" {
		t.Errorf("meta version = %q", res.Meta.ModelVersionID)
	}

	if res.Structured.Hemodynamics.MAP == nil || *res.Structured.Hemodynamics.MAP != 70 {
		t.Errorf("map = %v, want 70", res.Structured.Hemodynamics.MAP)
	}
	if len(res.Structured.Hemodynamics.Pressors) != 1 || res.Structured.Hemodynamics.Pressors[0] != "MAP 70 on norepi" {
		t.Errorf("pressors = %v", res.Structured.Hemodynamics.Pressors)
	}
	if !strings.Contains(res.Structured.NeuroExam, "No focal deficit") {
		t.Errorf("neuro_exam = %q", res.Structured.NeuroExam)
	}

	var neuro *types.EntitySpan
	for i := range res.Confidence.Entities {
		if res.Confidence.Entities[i].Label == types.EntityNeuroExam {
			neuro = &res.Confidence.Entities[i]
		}
	}
	if neuro == nil {
		t.Fatalf("no neuro entity: %+v", res.Confidence.Entities)
	}
	if !neuro.Negated {
		t.Error("neuro entity not negated")
	}
	if neuro.Prob != ner.SpanConfidence {
		t.Errorf("entity prob = %v", neuro.Prob)
	}

	if !strings.Contains(res.CleanedText, "MAP 70 on norepi.") || !strings.Contains(res.CleanedText, "No focal deficit.") {
		t.Errorf("cleaned = %q", res.CleanedText)
	}
}

func TestRunExplicitVersionNotFound(t *testing.T) {
	engine := NewEngine(trainedStorage(t))
	_, err := engine.Run(context.Background(), "text", Options{ModelVersionID: "missing"})
	if err == nil {
		t.Fatal("expected error for unknown explicit version")
	}
}

func TestRunKeepThreshold(t *testing.T) {
	engine := NewEngine(trainedStorage(t))
	text := "MAP 70 on norepi. Lunch tray delivered."

	res, err := engine.Run(context.Background(), text, Options{KeepThreshold: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(res.CleanedText, "Lunch tray") {
		t.Errorf("irrelevant sentence kept: %q", res.CleanedText)
	}
	if !strings.Contains(res.CleanedText, "MAP 70 on norepi.") {
		t.Errorf("relevant sentence dropped: %q", res.CleanedText)
	}
	if res.Meta.KeptSentenceCount != 1 || res.Meta.TotalSentenceCount != 2 {
		t.Errorf("meta = %+v", res.Meta)
	}
}

func TestRunBatchIndependence(t *testing.T) {
	engine := NewEngine(&fakeStorage{})
	texts := []string{
		"MAP 70 on norepi.",
		"No focal deficit.",
		"",
	}
	results, err := engine.RunBatch(context.Background(), texts, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(texts) {
		t.Fatalf("got %d results for %d texts", len(results), len(texts))
	}
	if results[0].CleanedText != "MAP 70 on norepi." {
		t.Errorf("result 0 cleaned = %q", results[0].CleanedText)
	}
	if results[1].CleanedText != "No focal deficit." {
		t.Errorf("result 1 cleaned = %q", results[1].CleanedText)
	}
	if results[2].CleanedText != "" || results[2].Meta.TotalSentenceCount != 0 {
		t.Errorf("result 2 = %+v", results[2])
	}
}

func TestArtifactCacheReuse(t *testing.T) {
	st := trainedStorage(t)
	engine := NewEngine(st)
	ctx := context.Background()

	if _, err := engine.Run(ctx, "MAP 70 on norepi.", Options{}); err != nil {
		t.Fatal(err)
	}
	if len(engine.cache) != 1 {
		t.Fatalf("cache size = %d", len(engine.cache))
	}
	first := engine.cache["test-version"]

	if _, err := engine.Run(ctx, "No focal deficit.", Options{}); err != nil {
		t.Fatal(err)
	}
	if engine.cache["test-version"] != first {
		t.Error("cache entry replaced on second run")
	}
}
