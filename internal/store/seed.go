// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mednote-cleaner/internal/rules"
)

// seedFile is the YAML layout of a seed-data file.
type seedFile struct {
	Notes []struct {
		ID      string            `yaml:"id"`
		Source  string            `yaml:"source"`
		RawText string            `yaml:"raw_text"`
		Meta    map[string]string `yaml:"meta"`
	} `yaml:"notes"`
	Sentences []struct {
		ID        string `yaml:"id"`
		NoteID    string `yaml:"note_id"`
		Idx       int    `yaml:"idx"`
		Text      string `yaml:"text"`
		StartChar int    `yaml:"start_char"`
		EndChar   int    `yaml:"end_char"`
	} `yaml:"sentences"`
	SentenceLabels []struct {
		SentenceID string `yaml:"sentence_id"`
		Label      string `yaml:"label"`
	} `yaml:"sentence_labels"`
	SpanAnnotations []struct {
		NoteID    string `yaml:"note_id"`
		StartChar int    `yaml:"start_char"`
		EndChar   int    `yaml:"end_char"`
		Label     string `yaml:"label"`
		Text      string `yaml:"text"`
	} `yaml:"span_annotations"`
}

// Seed loads notes, sentences, labels, and spans from a YAML file, but
// only when the notes table is empty. It reports whether anything was
// loaded.
func (s *Store) Seed(ctx context.Context, path string) (bool, error) {
	var existing int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&existing); err != nil {
		return false, fmt.Errorf("counting notes: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return false, fmt.Errorf("parsing seed file: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := nowISO()
	noteText := map[string]string{}
	for _, n := range seed.Notes {
		id := n.ID
		if id == "" {
			id = newID()
		}
		noteText[id] = n.RawText
		source := n.Source
		if source == "" {
			source = "seed"
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO notes (id, created_at, source, raw_text, meta_json) VALUES (?, ?, ?, ?, '{}')`,
			id, now, source, n.RawText,
		); err != nil {
			return false, fmt.Errorf("seeding note: %w", err)
		}
	}
	for _, sent := range seed.Sentences {
		id := sent.ID
		if id == "" {
			id = newID()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sentences (id, note_id, idx, text, start_char, end_char) VALUES (?, ?, ?, ?, ?, ?)`,
			id, sent.NoteID, sent.Idx, sent.Text, sent.StartChar, sent.EndChar,
		); err != nil {
			return false, fmt.Errorf("seeding sentence: %w", err)
		}
	}
	for _, sl := range seed.SentenceLabels {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sentence_labels (id, sentence_id, label, created_at, created_by) VALUES (?, ?, ?, ?, 'seed')`,
			newID(), sl.SentenceID, sl.Label, now,
		); err != nil {
			return false, fmt.Errorf("seeding sentence label: %w", err)
		}
	}
	for _, sp := range seed.SpanAnnotations {
		text := sp.Text
		if text == "" {
			raw := noteText[sp.NoteID]
			if sp.StartChar >= 0 && sp.EndChar <= len(raw) && sp.StartChar < sp.EndChar {
				text = raw[sp.StartChar:sp.EndChar]
			}
		}
		temporal, _ := rules.Temporal(text)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO span_annotations (id, note_id, label, start_char, end_char, text, negated, temporal, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			newID(), sp.NoteID, sp.Label, sp.StartChar, sp.EndChar, text,
			rules.Negated(text), string(temporal), now,
		); err != nil {
			return false, fmt.Errorf("seeding span annotation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing seed data: %w", err)
	}
	return true, nil
}
