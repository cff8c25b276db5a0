package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sevigo/code-pilot/internal/core"
)

// Library is the review history as seen by the API.
type Library interface {
	List(ctx context.Context) ([]core.ReviewRecord, error)
	Get(ctx context.Context, id int64) (*core.ReviewRecord, error)
	Rename(ctx context.Context, id int64, title string) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]core.ReviewRecord, error)
	Reindex(ctx context.Context) (int, error)
}

type LibraryHandler struct {
	library Library
	logger  *slog.Logger
}

func NewLibraryHandler(library Library, logger *slog.Logger) *LibraryHandler {
	return &LibraryHandler{library: library, logger: logger}
}

type reviewsResponse struct {
	Reviews []core.ReviewRecord `json:"reviews"`
}

func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.library.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if records == nil {
		records = []core.ReviewRecord{}
	}
	writeJSON(w, http.StatusOK, reviewsResponse{Reviews: records})
}

func (h *LibraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := reviewIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec, err := h.library.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Rename updates a review's title: PATCH {"title": "..."}.
func (h *LibraryHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := reviewIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var body struct {
		Title string `json:"title"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.library.Rename(r.Context(), id, body.Title); err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec, err := h.library.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *LibraryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := reviewIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.library.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search ranks the library against a natural-language query: POST {"query": "..."}.
func (h *LibraryHandler) Search(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	records, err := h.library.Search(r.Context(), body.Query)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if records == nil {
		records = []core.ReviewRecord{}
	}
	writeJSON(w, http.StatusOK, reviewsResponse{Reviews: records})
}

func (h *LibraryHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	n, err := h.library.Reindex(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"indexed": n})
}
