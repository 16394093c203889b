// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/mednote-cleaner/internal/relevance"
	"github.com/pdiddy/mednote-cleaner/internal/store"
	"github.com/pdiddy/mednote-cleaner/internal/train"
)

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

// respondError maps domain sentinels to HTTP statuses: lookups to 404,
// bad input to 400, training admission to 409, everything else to 500.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNoteNotFound),
		errors.Is(err, store.ErrSentenceNotFound),
		errors.Is(err, store.ErrModelVersionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidSpanOffsets),
		errors.Is(err, relevance.ErrTrainingDataInsufficient):
		status = http.StatusBadRequest
	case errors.Is(err, train.ErrTrainingInProgress):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	s.respond(w, status, errorBody{Error: err.Error()})
}

// bind decodes the request body into v and validates it. A false return
// means the 400 response has already been written.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respond(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			s.respond(w, http.StatusBadRequest, errorBody{Error: verrs.Error()})
			return false
		}
		s.respond(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return false
	}
	return true
}
