package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/PetLahev/fivb-monitor/internal/roster"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	JSON(w, http.StatusInternalServerError, errorBody{Detail: "Internal Server Error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	JSON(w, http.StatusBadRequest, errorBody{Detail: msg})
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	JSON(w, http.StatusNotFound, errorBody{Detail: msg})
}

// Error picks the response for a domain error: malformed input is a 400,
// an unknown id a 404, anything else a logged 500.
func Error(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, roster.ErrFormat), errors.Is(err, roster.ErrValidation):
		BadRequest(w, err.Error(), err)
	case errors.Is(err, roster.ErrNotFound):
		NotFound(w, err.Error(), err)
	default:
		InternalServerError(w, msg, err)
	}
}
