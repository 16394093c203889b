package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetNote(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	note, err := s.CreateNote(ctx, "api", "MAP 70 on norepi. No focal deficit.", map[string]string{"unit": "icu"})
	require.NoError(t, err)
	require.NotEmpty(t, note.ID)

	got, err := s.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.RawText, got.RawText)
	assert.Equal(t, "icu", got.Meta["unit"])
}

func TestGetNoteNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetNote(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestListAndSearchNotes(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.CreateNote(ctx, "api", "CT head negative.", nil)
	require.NoError(t, err)
	_, err = s.CreateNote(ctx, "api", "Extubated this morning.", nil)
	require.NoError(t, err)

	notes, err := s.ListNotes(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	found, err := s.SearchNotes(ctx, "extubated")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].RawText, "Extubated")
}

func TestReplaceSentencesAndLabels(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	note, err := s.CreateNote(ctx, "api", "One. Two.", nil)
	require.NoError(t, err)

	sentences, err := s.ReplaceSentences(ctx, note.ID, []types.SentenceSpan{
		{Idx: 0, Text: "One.", StartChar: 0, EndChar: 4},
		{Idx: 1, Text: "Two.", StartChar: 5, EndChar: 9},
	})
	require.NoError(t, err)
	require.Len(t, sentences, 2)

	// Re-segmenting replaces, not appends.
	sentences, err = s.ReplaceSentences(ctx, note.ID, []types.SentenceSpan{
		{Idx: 0, Text: "One.", StartChar: 0, EndChar: 4},
	})
	require.NoError(t, err)
	require.Len(t, sentences, 1)

	_, err = s.LabelSentence(ctx, sentences[0].ID, types.LabelRemove, "user")
	require.NoError(t, err)
	_, err = s.LabelSentence(ctx, sentences[0].ID, types.LabelKeep, "user")
	require.NoError(t, err)

	labeled, err := s.LabeledSentences(ctx)
	require.NoError(t, err)
	require.Len(t, labeled, 1)
	assert.Equal(t, types.LabelKeep, labeled[0].Label, "last write wins")

	_, err = s.LabelSentence(ctx, "missing", types.LabelKeep, "user")
	assert.ErrorIs(t, err, ErrSentenceNotFound)
}

func TestCreateSpanValidatesOffsets(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	note, err := s.CreateNote(ctx, "api", "No focal deficit today.", nil)
	require.NoError(t, err)

	for _, tc := range []struct{ start, end int }{
		{-1, 5},
		{5, 5},
		{9, 4},
		{0, len(note.RawText) + 1},
	} {
		_, err := s.CreateSpan(ctx, note.ID, tc.start, tc.end, types.EntityNeuroExam)
		assert.ErrorIs(t, err, ErrInvalidSpanOffsets, "offsets %d..%d", tc.start, tc.end)
	}

	spans, err := s.SpanAnnotations(ctx)
	require.NoError(t, err)
	assert.Empty(t, spans, "rejected spans must not be partially applied")

	span, err := s.CreateSpan(ctx, note.ID, 0, 16, types.EntityNeuroExam)
	require.NoError(t, err)
	assert.Equal(t, "No focal deficit", span.Text)
	assert.True(t, span.Negated)
	assert.Empty(t, span.Temporal, "span text carries no temporal cue")

	require.NoError(t, s.DeleteSpan(ctx, span.ID))
	spans, err = s.SpanAnnotations(ctx)
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestModelVersions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.LatestModelVersion(ctx)
	assert.ErrorIs(t, err, ErrModelVersionNotFound)

	v1 := types.ModelVersion{
		ID: "v1", CreatedAt: "2026-01-01T00:00:00Z",
		SentenceModelPath: "a.gob", NERModelPath: "b.gob",
		Metrics: types.Metrics{Sentence: types.SentenceMetrics{Accuracy: 0.9, F1: 0.8}},
		Config:  types.DefaultTrainingConfig(),
	}
	v2 := v1
	v2.ID = "v2"
	v2.CreatedAt = "2026-02-01T00:00:00Z"

	require.NoError(t, s.CreateModelVersion(ctx, v1))
	require.NoError(t, s.CreateModelVersion(ctx, v2))

	latest, err := s.LatestModelVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", latest.ID)

	got, err := s.ModelVersion(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 0.9, got.Metrics.Sentence.Accuracy)
	assert.Equal(t, 200, got.Config.MaxSteps)

	_, err = s.ModelVersion(ctx, "v3")
	assert.ErrorIs(t, err, ErrModelVersionNotFound)

	all, err := s.ListModelVersions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "v2", all[0].ID)
}

func TestLogInferenceRun(t *testing.T) {
	s := testStore(t)
	res := types.InferenceResult{
		CleanedText: "kept",
		Structured:  types.EmptyRecord(),
		Meta:        types.InferenceMeta{KeepThreshold: 0.5},
	}
	id, err := s.LogInferenceRun(context.Background(), "input", res)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	note, err := s.CreateNote(ctx, "api", "One. Two.", nil)
	require.NoError(t, err)
	sentences, err := s.ReplaceSentences(ctx, note.ID, []types.SentenceSpan{
		{Idx: 0, Text: "One.", StartChar: 0, EndChar: 4},
		{Idx: 1, Text: "Two.", StartChar: 5, EndChar: 9},
	})
	require.NoError(t, err)
	_, err = s.LabelSentence(ctx, sentences[0].ID, types.LabelKeep, "user")
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Notes)
	assert.Equal(t, 2, st.TotalSentences)
	assert.Equal(t, 1, st.LabeledSentences)
}

func TestSeed(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedYAML := `notes:
  - id: note-1
    raw_text: "MAP 70 on norepi. No focal deficit."
sentences:
  - id: sent-1
    note_id: note-1
    idx: 0
    text: "MAP 70 on norepi."
    start_char: 0
    end_char: 17
sentence_labels:
  - sentence_id: sent-1
    label: KEEP
span_annotations:
  - note_id: note-1
    start_char: 0
    end_char: 16
    label: HEMODYNAMICS
`
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	loaded, err := s.Seed(ctx, path)
	require.NoError(t, err)
	assert.True(t, loaded)

	spans, err := s.SpanAnnotations(ctx)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "MAP 70 on norepi", spans[0].Text)

	// Second run is a no-op: the store is not empty anymore.
	loaded, err = s.Seed(ctx, path)
	require.NoError(t, err)
	assert.False(t, loaded)
}
