package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prentissw/chartedroots/internal/apperr"
	"github.com/prentissw/chartedroots/internal/timeline"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var cyc *timeline.CyclicConstraintError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrNoEvents),
		errors.Is(err, apperr.ErrInvalidOptions),
		errors.Is(err, apperr.ErrNotTimeline),
		errors.Is(err, apperr.ErrInvalidDocument),
		errors.As(err, &cyc):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err with its mapped status. Internal failures are
// logged and masked.
func writeError(w http.ResponseWriter, op, path string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(op+" failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, status, errorBody("internal error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}
