// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

// CreateModelVersion writes a model version row. The caller serializes
// both artifacts first; the row is only written when both succeeded.
func (s *Store) CreateModelVersion(ctx context.Context, mv types.ModelVersion) error {
	metricsJSON, err := json.Marshal(mv.Metrics)
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}
	configJSON, err := json.Marshal(mv.Config)
	if err != nil {
		return fmt.Errorf("encoding training config: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO model_versions (id, created_at, sentence_model_path, ner_model_path, metrics_json, training_config_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		mv.ID, mv.CreatedAt, mv.SentenceModelPath, mv.NERModelPath,
		string(metricsJSON), string(configJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting model version: %w", err)
	}
	return nil
}

// ModelVersion returns a version by id, or ErrModelVersionNotFound.
func (s *Store) ModelVersion(ctx context.Context, id string) (types.ModelVersion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, sentence_model_path, ner_model_path, metrics_json, training_config_json
		 FROM model_versions WHERE id = ?`, id)
	return scanModelVersion(row)
}

// LatestModelVersion returns the most recently created version, or
// ErrModelVersionNotFound when none exist.
func (s *Store) LatestModelVersion(ctx context.Context) (types.ModelVersion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, sentence_model_path, ner_model_path, metrics_json, training_config_json
		 FROM model_versions ORDER BY created_at DESC LIMIT 1`)
	return scanModelVersion(row)
}

// ListModelVersions returns all versions newest-first.
func (s *Store) ListModelVersions(ctx context.Context) ([]types.ModelVersion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, sentence_model_path, ner_model_path, metrics_json, training_config_json
		 FROM model_versions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing model versions: %w", err)
	}
	defer rows.Close()

	var versions []types.ModelVersion
	for rows.Next() {
		mv, err := scanModelVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, mv)
	}
	return versions, rows.Err()
}

func scanModelVersion(row rowScanner) (types.ModelVersion, error) {
	var mv types.ModelVersion
	var metricsJSON, configJSON string
	err := row.Scan(&mv.ID, &mv.CreatedAt, &mv.SentenceModelPath, &mv.NERModelPath, &metricsJSON, &configJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ModelVersion{}, ErrModelVersionNotFound
	}
	if err != nil {
		return types.ModelVersion{}, fmt.Errorf("scanning model version: %w", err)
	}
	if err := json.Unmarshal([]byte(metricsJSON), &mv.Metrics); err != nil {
		return types.ModelVersion{}, fmt.Errorf("decoding metrics: %w", err)
	}
	if err := json.Unmarshal([]byte(configJSON), &mv.Config); err != nil {
		return types.ModelVersion{}, fmt.Errorf("decoding training config: %w", err)
	}
	return mv, nil
}

// LogInferenceRun persists one inference result for audit. This is a
// logging side effect; inference does not depend on it.
func (s *Store) LogInferenceRun(ctx context.Context, inputText string, res types.InferenceResult) (string, error) {
	outputJSON, err := json.Marshal(res.Structured)
	if err != nil {
		return "", fmt.Errorf("encoding structured record: %w", err)
	}
	confidenceJSON, err := json.Marshal(res.Confidence)
	if err != nil {
		return "", fmt.Errorf("encoding confidence: %w", err)
	}

	id := newID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO inference_runs (id, created_at, model_version_id, input_text, cleaned_text, output_json, confidence_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, nowISO(), res.Meta.ModelVersionID, inputText, res.CleanedText,
		string(outputJSON), string(confidenceJSON),
	)
	if err != nil {
		return "", fmt.Errorf("inserting inference run: %w", err)
	}
	return id, nil
}

// Stats returns labeling progress counters and a 7-day label history.
func (s *Store) Stats(ctx context.Context) (types.Stats, error) {
	var st types.Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM notes`, &st.Notes},
		{`SELECT COUNT(*) FROM model_versions`, &st.Models},
		{`SELECT COUNT(*) FROM sentences`, &st.TotalSentences},
		{`SELECT COUNT(DISTINCT sentence_id) FROM sentence_labels`, &st.LabeledSentences},
		{`SELECT COUNT(*) FROM span_annotations`, &st.SpanAnnotations},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return types.Stats{}, fmt.Errorf("counting: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date(created_at) AS day, COUNT(*) FROM sentence_labels
		 WHERE created_at > date('now', '-7 days')
		 GROUP BY day ORDER BY day ASC`)
	if err != nil {
		return types.Stats{}, fmt.Errorf("reading labeling history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var h types.LabelingHistory
		if err := rows.Scan(&h.Day, &h.Count); err != nil {
			return types.Stats{}, fmt.Errorf("scanning labeling history: %w", err)
		}
		st.LabelingHistory = append(st.LabelingHistory, h)
	}
	return st, rows.Err()
}
