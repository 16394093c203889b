// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP: note and annotation
// CRUD, inference, and background training with progress polling. It is
// thin plumbing over the store, the inference engine, and the training
// orchestrator.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/pdiddy/mednote-cleaner/internal/infer"
	"github.com/pdiddy/mednote-cleaner/internal/store"
	"github.com/pdiddy/mednote-cleaner/internal/train"
	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

// Server wires the HTTP surface to the engine components.
type Server struct {
	store    *store.Store
	engine   *infer.Engine
	tracker  *train.Tracker
	log      zerolog.Logger
	validate *validator.Validate
	cfg      types.ServerConfig
	trainCfg types.TrainingConfig
}

// New builds a server around an open store.
func New(st *store.Store, log zerolog.Logger, cfg types.ServerConfig, trainCfg types.TrainingConfig) *Server {
	return &Server{
		store:    st,
		engine:   infer.NewEngine(st),
		tracker:  train.NewTracker(),
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cfg:      cfg,
		trainCfg: trainCfg,
	}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/notes", s.handleCreateNote)
		r.Get("/notes", s.handleListNotes)
		r.Get("/notes/{noteID}", s.handleGetNote)
		r.Post("/notes/{noteID}/segment", s.handleSegmentNote)
		r.Post("/notes/{noteID}/spans", s.handleCreateSpan)
		r.Post("/sentences/{sentenceID}/label", s.handleLabelSentence)
		r.Delete("/spans/{spanID}", s.handleDeleteSpan)

		r.Post("/infer", s.handleInfer)
		r.Post("/infer/batch", s.handleInferBatch)
		r.Post("/feedback", s.handleFeedback)

		r.Post("/train", s.handleTrain)
		r.Get("/train/progress", s.handleTrainProgress)
		r.Get("/models", s.handleListModels)
		r.Get("/models/{modelVersionID}", s.handleGetModel)

		r.Get("/stats", s.handleStats)
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", s.cfg.Addr).Msg("listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// statusWriter captures the response code for the access log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
