// Package handler provides HTTP handlers for the Code-Pilot API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/code-pilot/internal/core"
)

const maxBodyBytes = 4 << 20

type errorResponse struct {
	Error      string `json:"error"`
	Overloaded bool   `json:"overloaded,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes it as {"error": "..."}.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error:      core.UserMessage(err),
		Overloaded: core.IsOverloaded(err),
	})
}

func statusFor(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrUnknownOperation):
		return http.StatusNotFound
	case errors.Is(err, core.ErrQueueFull), core.IsOverloaded(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &core.ValidationError{Reason: errors.New("request body must be valid JSON")}
	}
	return nil
}

func reviewIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, &core.ValidationError{Reason: errors.New("review id must be an integer")}
	}
	return id, nil
}
