package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/code-pilot/internal/core"
)

// minDetectableCodeLen is the shortest trimmed snippet worth asking the model about.
const minDetectableCodeLen = 20

// LanguageCheck is the result of validating a snippet against a selected language.
type LanguageCheck struct {
	Valid   bool   `json:"isValid"`
	Message string `json:"error,omitempty"`
}

// Assistant runs the single-call flows around a review.
type Assistant struct {
	generate GenerateFunc
	prompts  *PromptManager
	provider ModelProvider
	logger   *slog.Logger
}

func NewAssistant(generate GenerateFunc, prompts *PromptManager, provider ModelProvider, logger *slog.Logger) *Assistant {
	return &Assistant{
		generate: generate,
		prompts:  prompts,
		provider: provider,
		logger:   logger,
	}
}

func (a *Assistant) call(ctx context.Context, key PromptKey, data any) (string, error) {
	prompt, err := a.prompts.Render(key, a.provider, data)
	if err != nil {
		return "", fmt.Errorf("could not render prompt '%s': %w", key, err)
	}

	a.logger.Debug("calling LLM", "prompt_key", key, "prompt_len", len(prompt))
	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return "", core.ClassifyBackendError(fmt.Errorf("LLM generation failed for prompt '%s': %w", key, err))
	}
	return raw, nil
}

// StyleSuggestions returns a list of style improvements for code.
func (a *Assistant) StyleSuggestions(ctx context.Context, code, language string, strictness core.Strictness) ([]string, error) {
	req := core.ReviewRequest{Code: code, Language: language, Strictness: strictness}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	raw, err := a.call(ctx, StyleSuggestionsPrompt, struct {
		Code, Language string
		Strictness     core.Strictness
	}{code, language, strictness})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := decodeModelJSON(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse style suggestions: %w", err)
	}

	out := resp.Suggestions[:0]
	for _, s := range resp.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// DetectLanguage guesses the language of code. It returns "" without calling
// the model when the snippet is too short, and "" when the answer is not a
// supported language.
func (a *Assistant) DetectLanguage(ctx context.Context, code string) (string, error) {
	if len(strings.TrimSpace(code)) < minDetectableCodeLen {
		return "", nil
	}

	supported, err := json.Marshal(LanguageValues())
	if err != nil {
		return "", fmt.Errorf("failed to encode language list: %w", err)
	}

	raw, err := a.call(ctx, DetectLanguagePrompt, struct {
		Code, SupportedLanguages string
	}{code, string(supported)})
	if err != nil {
		return "", err
	}

	var resp struct {
		Language string `json:"language"`
	}
	if err := decodeModelJSON(raw, &resp); err != nil {
		return "", fmt.Errorf("failed to parse detected language: %w", err)
	}

	lang := strings.ToLower(strings.TrimSpace(resp.Language))
	if !IsSupportedLanguage(lang) {
		if lang != "" {
			a.logger.Info("model detected an unsupported language", "language", lang)
		}
		return "", nil
	}
	return lang, nil
}

// ValidateLanguage checks whether code looks like language. Any failure to get
// an answer counts as valid so a review is never blocked by this check.
func (a *Assistant) ValidateLanguage(ctx context.Context, code, language string) LanguageCheck {
	raw, err := a.call(ctx, ValidateLanguagePrompt, struct {
		Code, Language string
	}{code, language})
	if err != nil {
		a.logger.Warn("language validation failed, allowing review", "language", language, "error", err)
		return LanguageCheck{Valid: true}
	}

	var resp struct {
		IsMatch *bool `json:"isMatch"`
	}
	if err := decodeModelJSON(raw, &resp); err != nil || resp.IsMatch == nil {
		a.logger.Warn("could not parse language validation, allowing review", "language", language, "error", err)
		return LanguageCheck{Valid: true}
	}

	if !*resp.IsMatch {
		return LanguageCheck{
			Valid:   false,
			Message: fmt.Sprintf("The code does not appear to be %s. Please select the correct language.", language),
		}
	}
	return LanguageCheck{Valid: true}
}

// Explain expands one feedback item into a short markdown explanation.
func (a *Assistant) Explain(ctx context.Context, code, feedback, language string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", &core.ValidationError{Reason: core.ErrEmptyCode}
	}
	if strings.TrimSpace(feedback) == "" {
		return "", &core.ValidationError{Reason: core.ErrEmptyFeedback}
	}

	raw, err := a.call(ctx, ExplainFeedbackPrompt, struct {
		Code, Feedback, Language string
	}{code, feedback, language})
	if err != nil {
		return "", err
	}

	// Older prompt variants answered {"explanation": "..."}.
	var resp struct {
		Explanation string `json:"explanation"`
	}
	if err := decodeModelJSON(raw, &resp); err == nil && resp.Explanation != "" {
		return resp.Explanation, nil
	}
	return strings.TrimSpace(raw), nil
}

type rankedReview struct {
	ID            int64           `json:"id"`
	Timestamp     int64           `json:"timestamp"`
	Code          string          `json:"code"`
	Language      string          `json:"language"`
	Strictness    core.Strictness `json:"strictness"`
	Feedback      *string         `json:"feedback"`
	CorrectedCode *string         `json:"correctedCode"`
}

// RankReviews asks the model which records answer query. The returned ids are
// ordered from most to least relevant; ids the model invents are dropped.
func (a *Assistant) RankReviews(ctx context.Context, query string, records []core.ReviewRecord) ([]int64, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &core.ValidationError{Reason: core.ErrEmptyQuery}
	}
	if len(records) == 0 {
		return nil, nil
	}

	known := make(map[int64]struct{}, len(records))
	payload := make([]rankedReview, len(records))
	for i, r := range records {
		known[r.ID] = struct{}{}
		payload[i] = rankedReview{
			ID:            r.ID,
			Timestamp:     r.Timestamp,
			Code:          r.Code,
			Language:      r.Language,
			Strictness:    r.Strictness,
			Feedback:      r.Feedback,
			CorrectedCode: r.CorrectedCode,
		}
	}
	reviews, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode reviews: %w", err)
	}

	raw, err := a.call(ctx, RankReviewsPrompt, struct {
		Query, Reviews string
	}{query, string(reviews)})
	if err != nil {
		return nil, err
	}

	var resp struct {
		RelevantReviewIDs []int64 `json:"relevantReviewIds"`
	}
	if err := decodeModelJSON(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	ids := make([]int64, 0, len(resp.RelevantReviewIDs))
	seen := make(map[int64]struct{}, len(resp.RelevantReviewIDs))
	for _, id := range resp.RelevantReviewIDs {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
