package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/arena-server/internal/arena"
	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
	"github.com/robalobadob/wordle/apps/arena-server/internal/match"
	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
)

var (
	errBadJSON      = errors.New("request body is not valid JSON")
	errMissingField = errors.New("missing required field")
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: code, Message: msg})
}

// writeError maps domain errors to status codes and stable error codes.
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, game.ErrWrongLength):
		status, code = http.StatusBadRequest, "wrong_length"
	case errors.Is(err, game.ErrNotAdmissible):
		status, code = http.StatusBadRequest, "not_admissible"
	case errors.Is(err, game.ErrAlreadyOver):
		status, code = http.StatusBadRequest, "already_over"
	case errors.Is(err, errBadJSON):
		status, code = http.StatusBadRequest, "bad_json"
	case errors.Is(err, errMissingField), errors.Is(err, match.ErrMissingParticipant), errors.Is(err, arena.ErrNoModels):
		status, code = http.StatusBadRequest, "missing_field"
	case errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "session_not_found"
	case errors.Is(err, store.ErrNotAParticipant):
		status, code = http.StatusForbidden, "not_a_participant"
	case errors.Is(err, arena.ErrRunning):
		status, code = http.StatusConflict, "arena_running"
	default:
		log.Error().Err(err).Msg("unhandled request error")
		writeJSONError(w, status, code, "internal error")
		return
	}
	writeJSONError(w, status, code, err.Error())
}

// decodeBody decodes an optional JSON body. An empty body is not an error.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errBadJSON
	}
	return nil
}
