package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Success: false, Error: msg})
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	writeError(w, http.StatusBadRequest, msg)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	writeError(w, http.StatusNotFound, msg)
}

func Unauthorized(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg)
}

func TooManyRequests(w http.ResponseWriter, msg string) {
	w.Header().Set("Retry-After", "1")
	writeError(w, http.StatusTooManyRequests, msg)
}

// StatusFor maps a service error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, bracket.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bracket.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, bracket.ErrCapacityExceeded), errors.Is(err, bracket.ErrIntegrityViolation):
		return http.StatusConflict
	case errors.Is(err, bracket.ErrIncompletePrecondition),
		errors.Is(err, bracket.ErrWinnerNotInMatch),
		errors.Is(err, bracket.ErrUnknownRound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error writes err with its mapped status. Persistence and unknown failures are
// logged and reported generically.
func Error(w http.ResponseWriter, msg string, err error) {
	status := StatusFor(err)
	switch status {
	case http.StatusInternalServerError:
		InternalServerError(w, msg, err)
	case http.StatusNotFound:
		NotFound(w, err.Error(), err)
	default:
		slog.Warn(msg, "status", status, "error", err)
		writeError(w, status, err.Error())
	}
}
