package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/code-pilot/internal/core"
)

// SessionHeader identifies a client tab. A new review on the same session
// supersedes the previous one.
const SessionHeader = "X-Session-ID"

type ReviewHandler struct {
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

func NewReviewHandler(dispatcher core.JobDispatcher, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type createReviewRequest struct {
	Code       string `json:"code"`
	Language   string `json:"language"`
	Strictness string `json:"strictness"`
	Session    string `json:"session"`
}

type createReviewResponse struct {
	ID        string `json:"id"`
	EventsURL string `json:"eventsUrl"`
}

// Create queues a review and answers 202 with the operation id.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createReviewRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	req := core.ReviewRequest{
		Code:       body.Code,
		Language:   body.Language,
		Strictness: core.Strictness(body.Strictness),
	}
	if s, err := core.ParseStrictness(body.Strictness); err == nil {
		req.Strictness = s
	}

	session := body.Session
	if session == "" {
		session = r.Header.Get(SessionHeader)
	}

	id, err := h.dispatcher.Dispatch(r.Context(), session, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusAccepted, createReviewResponse{
		ID:        id,
		EventsURL: fmt.Sprintf("/api/v1/reviews/%s/events", id),
	})
}

// Events streams the operation's progress as server-sent events. Each event
// carries its position as the SSE id so clients can resume with Last-Event-ID.
func (h *ReviewHandler) Events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	from := resumePosition(r)

	events, err := h.dispatcher.Subscribe(r.Context(), id, from)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	pos := from
	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("failed to encode review event", "operation", id, "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", pos, ev.Kind, data); err != nil {
			h.logger.Debug("event stream client went away", "operation", id, "error", err)
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
		pos++
	}
}

// Cancel stops a running review.
func (h *ReviewHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.dispatcher.Cancel(chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func resumePosition(r *http.Request) int {
	if last := r.Header.Get("Last-Event-ID"); last != "" {
		if n, err := strconv.Atoi(last); err == nil && n >= 0 {
			return n + 1
		}
	}
	if from := r.URL.Query().Get("from"); from != "" {
		if n, err := strconv.Atoi(from); err == nil && n >= 0 {
			return n
		}
	}
	return 0
}
