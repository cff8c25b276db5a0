// Package llm adapts language-model backends to the review protocol and to the
// assistant's one-shot flows (style suggestions, language detection,
// explanations and history search).
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/code-pilot/internal/core"
)

// GenerateFunc sends a rendered prompt to a model and returns its raw answer.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// FromModel adapts a goframe model to a GenerateFunc.
func FromModel(model llms.Model) GenerateFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return model.Call(ctx, prompt)
	}
}

type reviewPromptData struct {
	Language           string
	Strictness         core.Strictness
	Fragment           string
	PriorOutput        string
	IsContinuation     bool
	CustomInstructions string
}

type reviewResponse struct {
	Feedback      string `json:"feedback"`
	CorrectedCode string `json:"correctedCode"`
	Continue      bool   `json:"continue"`
}

// ModelClient implements core.CompletionClient on top of a text-generation model.
type ModelClient struct {
	generate     GenerateFunc
	prompts      *PromptManager
	provider     ModelProvider
	instructions string
	logger       *slog.Logger
}

// NewModelClient creates a completion client. instructions are appended to
// every review prompt and may be empty.
func NewModelClient(generate GenerateFunc, prompts *PromptManager, provider ModelProvider, instructions string, logger *slog.Logger) *ModelClient {
	return &ModelClient{
		generate:     generate,
		prompts:      prompts,
		provider:     provider,
		instructions: instructions,
		logger:       logger,
	}
}

var _ core.CompletionClient = (*ModelClient)(nil)

// Complete renders the review prompt for req, calls the model and decodes its
// JSON answer. A continuation answer that is not JSON is taken as plain code.
func (c *ModelClient) Complete(ctx context.Context, req core.CompletionRequest) (core.CompletionResult, error) {
	prompt, err := c.prompts.Render(CodeReviewPrompt, c.provider, reviewPromptData{
		Language:           req.Language,
		Strictness:         req.Strictness,
		Fragment:           req.Fragment,
		PriorOutput:        req.PriorOutput,
		IsContinuation:     req.IsContinuation,
		CustomInstructions: c.instructions,
	})
	if err != nil {
		return core.CompletionResult{}, fmt.Errorf("could not render review prompt: %w", err)
	}

	c.logger.Debug("calling LLM for review",
		"language", req.Language,
		"continuation", req.IsContinuation,
		"fragment_len", len(req.Fragment),
		"prior_len", len(req.PriorOutput),
	)

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return core.CompletionResult{}, fmt.Errorf("LLM generation failed: %w", err)
	}

	var resp reviewResponse
	if err := decodeModelJSON(raw, &resp); err != nil {
		if req.IsContinuation {
			c.logger.Warn("continuation answer is not JSON, using it as code", "error", err)
			return core.CompletionResult{Code: stripCodeFence(raw)}, nil
		}
		return core.CompletionResult{}, fmt.Errorf("failed to parse review response: %w", err)
	}

	return core.CompletionResult{
		Feedback: resp.Feedback,
		Code:     resp.CorrectedCode,
		Continue: resp.Continue,
	}, nil
}
