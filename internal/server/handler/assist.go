package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sevigo/code-pilot/internal/core"
	"github.com/sevigo/code-pilot/internal/llm"
)

// Assistant runs the single-call helpers around a review.
type Assistant interface {
	StyleSuggestions(ctx context.Context, code, language string, strictness core.Strictness) ([]string, error)
	DetectLanguage(ctx context.Context, code string) (string, error)
	ValidateLanguage(ctx context.Context, code, language string) llm.LanguageCheck
	Explain(ctx context.Context, code, feedback, language string) (string, error)
}

type AssistHandler struct {
	assistant Assistant
	logger    *slog.Logger
}

func NewAssistHandler(assistant Assistant, logger *slog.Logger) *AssistHandler {
	return &AssistHandler{assistant: assistant, logger: logger}
}

type snippetRequest struct {
	Code       string `json:"code"`
	Language   string `json:"language"`
	Strictness string `json:"strictness"`
	Feedback   string `json:"feedback"`
}

func (h *AssistHandler) Languages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]llm.Language{"languages": llm.Languages})
}

func (h *AssistHandler) Style(w http.ResponseWriter, r *http.Request) {
	var body snippetRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	strictness, err := core.ParseStrictness(body.Strictness)
	if err != nil {
		strictness = core.Strictness(body.Strictness)
	}
	suggestions, err := h.assistant.StyleSuggestions(r.Context(), body.Code, body.Language, strictness)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

func (h *AssistHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var body snippetRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	explanation, err := h.assistant.Explain(r.Context(), body.Code, body.Feedback, body.Language)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"explanation": explanation})
}

// DetectLanguage answers {"language": ""} when the snippet is too short or
// the language is unsupported.
func (h *AssistHandler) DetectLanguage(w http.ResponseWriter, r *http.Request) {
	var body snippetRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	lang, err := h.assistant.DetectLanguage(r.Context(), body.Code)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"language": lang})
}

func (h *AssistHandler) ValidateLanguage(w http.ResponseWriter, r *http.Request) {
	var body snippetRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.assistant.ValidateLanguage(r.Context(), body.Code, body.Language))
}

// FeedbackSections splits review feedback into its categories for display.
func (h *AssistHandler) FeedbackSections(w http.ResponseWriter, r *http.Request) {
	var body snippetRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	sections := llm.ParseFeedbackSections(body.Feedback)
	if sections == nil {
		sections = []llm.FeedbackSection{}
	}
	writeJSON(w, http.StatusOK, map[string][]llm.FeedbackSection{"sections": sections})
}
