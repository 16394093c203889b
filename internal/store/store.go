// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists notes, sentences, labels, span annotations,
// model versions, and inference runs in a SQLite database. It is the
// storage collaborator for both training (label reads) and inference
// (model version resolution, run logging).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/mednote-cleaner/internal/rules"
	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

const (
	dbFile    = "mednote.db"
	modelsDir = "models"
)

// Lookup and validation failures surfaced to callers as client errors.
var (
	ErrNoteNotFound         = errors.New("note not found")
	ErrSentenceNotFound     = errors.New("sentence not found")
	ErrModelVersionNotFound = errors.New("model version not found")
	ErrInvalidSpanOffsets   = errors.New("invalid span offsets")
)

// Store manages the SQLite database under a data directory.
type Store struct {
	db      *sql.DB
	dataDir string
}

// New opens or creates the database at dataDir/mednote.db and ensures
// the schema and the models/ directory exist.
func New(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	for _, dir := range []string{dataDir, filepath.Join(dataDir, modelsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: dataDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ModelsDir returns the directory where model artifacts are written.
func (s *Store) ModelsDir() string {
	return filepath.Join(s.dataDir, modelsDir)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			source TEXT,
			raw_text TEXT NOT NULL,
			meta_json TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sentences (
			id TEXT PRIMARY KEY,
			note_id TEXT NOT NULL REFERENCES notes(id),
			idx INTEGER NOT NULL,
			text TEXT NOT NULL,
			start_char INTEGER NOT NULL,
			end_char INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sentences_note_id ON sentences(note_id)`,
		`CREATE TABLE IF NOT EXISTS sentence_labels (
			id TEXT PRIMARY KEY,
			sentence_id TEXT NOT NULL REFERENCES sentences(id),
			label TEXT NOT NULL,
			created_at TEXT NOT NULL,
			created_by TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sentence_labels_sentence_id ON sentence_labels(sentence_id)`,
		`CREATE TABLE IF NOT EXISTS span_annotations (
			id TEXT PRIMARY KEY,
			note_id TEXT NOT NULL REFERENCES notes(id),
			label TEXT NOT NULL,
			start_char INTEGER NOT NULL,
			end_char INTEGER NOT NULL,
			text TEXT NOT NULL,
			negated INTEGER NOT NULL DEFAULT 0,
			temporal TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_span_annotations_note_id ON span_annotations(note_id)`,
		`CREATE TABLE IF NOT EXISTS model_versions (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			sentence_model_path TEXT NOT NULL,
			ner_model_path TEXT NOT NULL,
			metrics_json TEXT NOT NULL,
			training_config_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS inference_runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			model_version_id TEXT,
			input_text TEXT NOT NULL,
			cleaned_text TEXT NOT NULL,
			output_json TEXT NOT NULL,
			confidence_json TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// CreateNote stores a new note and returns it.
func (s *Store) CreateNote(ctx context.Context, source, rawText string, meta map[string]string) (types.Note, error) {
	note := types.Note{
		ID:        newID(),
		CreatedAt: nowISO(),
		Source:    source,
		RawText:   rawText,
		Meta:      meta,
	}
	metaJSON, _ := json.Marshal(meta)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, created_at, source, raw_text, meta_json) VALUES (?, ?, ?, ?, ?)`,
		note.ID, note.CreatedAt, note.Source, note.RawText, string(metaJSON),
	)
	if err != nil {
		return types.Note{}, fmt.Errorf("inserting note: %w", err)
	}
	return note, nil
}

// GetNote returns a note by id, or ErrNoteNotFound.
func (s *Store) GetNote(ctx context.Context, id string) (types.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, source, raw_text, meta_json FROM notes WHERE id = ?`, id)
	return scanNote(row)
}

// ListNotes returns notes newest-first.
func (s *Store) ListNotes(ctx context.Context, limit, offset int) ([]types.Note, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, raw_text, meta_json FROM notes
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

// SearchNotes returns up to 50 notes whose raw text contains query.
func (s *Store) SearchNotes(ctx context.Context, query string) ([]types.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, raw_text, meta_json FROM notes
		 WHERE raw_text LIKE ? ORDER BY created_at DESC LIMIT 50`, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("searching notes: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

// AllNotes returns every note, for NER training.
func (s *Store) AllNotes(ctx context.Context) ([]types.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, raw_text, meta_json FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("reading notes: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (types.Note, error) {
	var n types.Note
	var metaJSON sql.NullString
	err := row.Scan(&n.ID, &n.CreatedAt, &n.Source, &n.RawText, &metaJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Note{}, ErrNoteNotFound
	}
	if err != nil {
		return types.Note{}, fmt.Errorf("scanning note: %w", err)
	}
	if metaJSON.Valid && metaJSON.String != "" && metaJSON.String != "null" {
		_ = json.Unmarshal([]byte(metaJSON.String), &n.Meta)
	}
	return n, nil
}

func collectNotes(rows *sql.Rows) ([]types.Note, error) {
	var notes []types.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// ReplaceSentences deletes a note's stored sentences and writes the
// given spans in their place, returning the persisted rows.
func (s *Store) ReplaceSentences(ctx context.Context, noteID string, spans []types.SentenceSpan) ([]types.Sentence, error) {
	if _, err := s.GetNote(ctx, noteID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sentences WHERE note_id = ?`, noteID); err != nil {
		return nil, fmt.Errorf("deleting old sentences: %w", err)
	}

	sentences := make([]types.Sentence, 0, len(spans))
	for _, span := range spans {
		sent := types.Sentence{ID: newID(), NoteID: noteID, SentenceSpan: span}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sentences (id, note_id, idx, text, start_char, end_char) VALUES (?, ?, ?, ?, ?, ?)`,
			sent.ID, sent.NoteID, sent.Idx, sent.Text, sent.StartChar, sent.EndChar,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting sentence: %w", err)
		}
		sentences = append(sentences, sent)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sentences: %w", err)
	}
	return sentences, nil
}

// LabelSentence records a label for a sentence. History is retained; the
// most recent write wins for training reads.
func (s *Store) LabelSentence(ctx context.Context, sentenceID string, label types.SentenceLabel, createdBy string) (string, error) {
	var exists string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM sentences WHERE id = ?`, sentenceID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSentenceNotFound
	}
	if err != nil {
		return "", fmt.Errorf("checking sentence: %w", err)
	}

	id := newID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sentence_labels (id, sentence_id, label, created_at, created_by) VALUES (?, ?, ?, ?, ?)`,
		id, sentenceID, string(label), nowISO(), createdBy,
	)
	if err != nil {
		return "", fmt.Errorf("inserting sentence label: %w", err)
	}
	return id, nil
}

// LabeledSentence is one training example for the relevance classifier.
type LabeledSentence struct {
	Text  string
	Label types.SentenceLabel
}

// LabeledSentences returns each labeled sentence with its current label
// (last write wins).
func (s *Store) LabeledSentences(ctx context.Context) ([]LabeledSentence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.text, sl.label
		 FROM sentences s
		 JOIN sentence_labels sl ON sl.sentence_id = s.id
		 WHERE sl.rowid = (SELECT MAX(rowid) FROM sentence_labels WHERE sentence_id = s.id)`)
	if err != nil {
		return nil, fmt.Errorf("reading labeled sentences: %w", err)
	}
	defer rows.Close()

	var out []LabeledSentence
	for rows.Next() {
		var ls LabeledSentence
		if err := rows.Scan(&ls.Text, &ls.Label); err != nil {
			return nil, fmt.Errorf("scanning labeled sentence: %w", err)
		}
		out = append(out, ls)
	}
	return out, rows.Err()
}

// CreateSpan validates offsets against the note text, computes negation
// and temporal category for the covered text, and stores the annotation.
// Offset validation happens before any write.
func (s *Store) CreateSpan(ctx context.Context, noteID string, startChar, endChar int, label types.EntityLabel) (types.SpanAnnotation, error) {
	note, err := s.GetNote(ctx, noteID)
	if err != nil {
		return types.SpanAnnotation{}, err
	}
	if startChar < 0 || endChar > len(note.RawText) || startChar >= endChar {
		return types.SpanAnnotation{}, ErrInvalidSpanOffsets
	}

	text := note.RawText[startChar:endChar]
	temporal, _ := rules.Temporal(text)
	span := types.SpanAnnotation{
		ID:        newID(),
		NoteID:    noteID,
		Label:     label,
		StartChar: startChar,
		EndChar:   endChar,
		Text:      text,
		Negated:   rules.Negated(text),
		Temporal:  temporal,
		CreatedAt: nowISO(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO span_annotations (id, note_id, label, start_char, end_char, text, negated, temporal, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		span.ID, span.NoteID, string(span.Label), span.StartChar, span.EndChar,
		span.Text, span.Negated, string(span.Temporal), span.CreatedAt,
	)
	if err != nil {
		return types.SpanAnnotation{}, fmt.Errorf("inserting span annotation: %w", err)
	}
	return span, nil
}

// DeleteSpan removes a span annotation. Deleting an absent span is not
// an error.
func (s *Store) DeleteSpan(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM span_annotations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting span annotation: %w", err)
	}
	return nil
}

// SpanAnnotations returns every stored span annotation, for NER training
// and export.
func (s *Store) SpanAnnotations(ctx context.Context) ([]types.SpanAnnotation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, note_id, label, start_char, end_char, text, negated, temporal, created_at
		 FROM span_annotations`)
	if err != nil {
		return nil, fmt.Errorf("reading span annotations: %w", err)
	}
	defer rows.Close()

	var spans []types.SpanAnnotation
	for rows.Next() {
		var sp types.SpanAnnotation
		var temporal sql.NullString
		err := rows.Scan(&sp.ID, &sp.NoteID, &sp.Label, &sp.StartChar, &sp.EndChar,
			&sp.Text, &sp.Negated, &temporal, &sp.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning span annotation: %w", err)
		}
		sp.Temporal = types.TemporalCategory(temporal.String)
		spans = append(spans, sp)
	}
	return spans, rows.Err()
}
