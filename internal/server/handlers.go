// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/mednote-cleaner/internal/infer"
	"github.com/pdiddy/mednote-cleaner/internal/segment"
	"github.com/pdiddy/mednote-cleaner/internal/train"
	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

type createNoteRequest struct {
	Text   string            `json:"text" validate:"required"`
	Source string            `json:"source"`
	Meta   map[string]string `json:"meta"`
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if !s.bind(w, r, &req) {
		return
	}
	note, err := s.store.CreateNote(r.Context(), req.Source, req.Text, req.Meta)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, note)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	var notes []types.Note
	var err error
	if q := r.URL.Query().Get("q"); q != "" {
		notes, err = s.store.SearchNotes(r.Context(), q)
	} else {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		notes, err = s.store.ListNotes(r.Context(), limit, offset)
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	if notes == nil {
		notes = []types.Note{}
	}
	s.respond(w, http.StatusOK, map[string]any{"notes": notes})
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.store.GetNote(r.Context(), chi.URLParam(r, "noteID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, note)
}

func (s *Server) handleSegmentNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteID")
	note, err := s.store.GetNote(r.Context(), noteID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	sentences, err := s.store.ReplaceSentences(r.Context(), noteID, segment.Split(note.RawText))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if sentences == nil {
		sentences = []types.Sentence{}
	}
	s.respond(w, http.StatusOK, map[string]any{"sentences": sentences})
}

type labelSentenceRequest struct {
	Label     string `json:"label" validate:"required,oneof=KEEP REMOVE"`
	CreatedBy string `json:"created_by"`
}

func (s *Server) handleLabelSentence(w http.ResponseWriter, r *http.Request) {
	var req labelSentenceRequest
	if !s.bind(w, r, &req) {
		return
	}
	id, err := s.store.LabelSentence(r.Context(), chi.URLParam(r, "sentenceID"),
		types.SentenceLabel(req.Label), req.CreatedBy)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, map[string]string{"label_id": id})
}

type createSpanRequest struct {
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
	Label     string `json:"label" validate:"required,oneof=NEURO_EXAM IMAGING VENT HEMODYNAMICS LAB MEDICATION PROCEDURE ASSESSMENT"`
}

func (s *Server) handleCreateSpan(w http.ResponseWriter, r *http.Request) {
	var req createSpanRequest
	if !s.bind(w, r, &req) {
		return
	}
	span, err := s.store.CreateSpan(r.Context(), chi.URLParam(r, "noteID"),
		req.StartChar, req.EndChar, types.EntityLabel(req.Label))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, span)
}

func (s *Server) handleDeleteSpan(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSpan(r.Context(), chi.URLParam(r, "spanID")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type inferRequest struct {
	Text           string  `json:"text" validate:"required"`
	ModelVersionID string  `json:"model_version_id"`
	KeepThreshold  float64 `json:"keep_threshold"`
}

func (s *Server) handleInfer(w http.ResponseWriter, r *http.Request) {
	var req inferRequest
	if !s.bind(w, r, &req) {
		return
	}
	res, err := s.engine.Run(r.Context(), req.Text, infer.Options{
		ModelVersionID: req.ModelVersionID,
		KeepThreshold:  req.KeepThreshold,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	if _, err := s.store.LogInferenceRun(r.Context(), req.Text, res); err != nil {
		s.log.Error().Err(err).Msg("logging inference run")
	}
	s.respond(w, http.StatusOK, res)
}

type inferBatchRequest struct {
	Texts          []string `json:"texts" validate:"required,min=1"`
	ModelVersionID string   `json:"model_version_id"`
	KeepThreshold  float64  `json:"keep_threshold"`
}

func (s *Server) handleInferBatch(w http.ResponseWriter, r *http.Request) {
	var req inferBatchRequest
	if !s.bind(w, r, &req) {
		return
	}
	results, err := s.engine.RunBatch(r.Context(), req.Texts, infer.Options{
		ModelVersionID: req.ModelVersionID,
		KeepThreshold:  req.KeepThreshold,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"results": results})
}

type feedbackRequest struct {
	InputText   string `json:"input_text" validate:"required"`
	Source      string `json:"source"`
	Corrections struct {
		SentenceLabels []struct {
			SentenceText string `json:"sentence_text" validate:"required"`
			Label        string `json:"label" validate:"required,oneof=KEEP REMOVE"`
		} `json:"sentence_labels" validate:"dive"`
		Spans []struct {
			StartChar int    `json:"start_char"`
			EndChar   int    `json:"end_char"`
			Label     string `json:"label" validate:"required,oneof=NEURO_EXAM IMAGING VENT HEMODYNAMICS LAB MEDICATION PROCEDURE ASSESSMENT"`
		} `json:"spans" validate:"dive"`
	} `json:"corrections"`
}

// handleFeedback turns a corrected inference into fresh training data:
// the input text becomes a note, its sentences are stored and labeled
// per the corrections, and corrected spans become span annotations.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !s.bind(w, r, &req) {
		return
	}
	ctx := r.Context()

	source := req.Source
	if source == "" {
		source = "feedback"
	}
	note, err := s.store.CreateNote(ctx, source, req.InputText, nil)
	if err != nil {
		s.respondError(w, err)
		return
	}
	sentences, err := s.store.ReplaceSentences(ctx, note.ID, segment.Split(note.RawText))
	if err != nil {
		s.respondError(w, err)
		return
	}

	byText := make(map[string]string, len(sentences))
	for _, sent := range sentences {
		byText[strings.TrimSpace(sent.Text)] = sent.ID
	}

	labeled := 0
	for _, sl := range req.Corrections.SentenceLabels {
		id, ok := byText[strings.TrimSpace(sl.SentenceText)]
		if !ok {
			continue
		}
		if _, err := s.store.LabelSentence(ctx, id, types.SentenceLabel(sl.Label), source); err != nil {
			s.respondError(w, err)
			return
		}
		labeled++
	}

	for _, sp := range req.Corrections.Spans {
		if _, err := s.store.CreateSpan(ctx, note.ID, sp.StartChar, sp.EndChar, types.EntityLabel(sp.Label)); err != nil {
			s.respondError(w, err)
			return
		}
	}

	s.respond(w, http.StatusCreated, map[string]any{
		"note_id":        note.ID,
		"labels_applied": labeled,
		"spans_created":  len(req.Corrections.Spans),
	})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	cfg := s.trainCfg

	// The body is optional; present fields override the configured
	// training defaults.
	var override types.TrainingConfig
	if err := json.NewDecoder(r.Body).Decode(&override); err == nil {
		if override.MaxSteps > 0 {
			cfg.MaxSteps = override.MaxSteps
		}
		if override.LearnRate > 0 {
			cfg.LearnRate = override.LearnRate
		}
		if override.BaseModel != "" {
			cfg.BaseModel = override.BaseModel
		}
	}

	if err := s.tracker.Begin(); err != nil {
		s.respondError(w, err)
		return
	}

	go func() {
		res, err := train.Run(context.Background(), s.store, s.store.ModelsDir(), cfg, io.Discard)
		if err != nil {
			s.log.Error().Err(err).Msg("training failed")
			s.tracker.Fail(err)
			return
		}
		s.log.Info().Str("model_version", res.ModelVersionID).Msg("training complete")
		s.tracker.Finish(res)
	}()

	s.respond(w, http.StatusAccepted, s.tracker.Snapshot())
}

func (s *Server) handleTrainProgress(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	versions, err := s.store.ListModelVersions(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	if versions == nil {
		versions = []types.ModelVersion{}
	}
	s.respond(w, http.StatusOK, map[string]any{"models": versions})
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	mv, err := s.store.ModelVersion(r.Context(), chi.URLParam(r, "modelVersionID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, mv)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, stats)
}
