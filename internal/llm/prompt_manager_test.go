package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/code-pilot/internal/core"
)

func TestNewPromptManager_LoadsEmbeddedPrompts(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	assert.Equal(t, []PromptKey{
		CodeReviewPrompt,
		DetectLanguagePrompt,
		ExplainFeedbackPrompt,
		RankReviewsPrompt,
		StyleSuggestionsPrompt,
		ValidateLanguagePrompt,
	}, pm.Keys())
}

func TestPromptManager_ProviderFallback(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	ollamaTmpl, err := pm.Get(CodeReviewPrompt, "ollama")
	require.NoError(t, err)
	assert.Equal(t, "code_review_ollama", ollamaTmpl.Name())

	geminiTmpl, err := pm.Get(CodeReviewPrompt, "gemini")
	require.NoError(t, err)
	assert.Equal(t, "code_review_default", geminiTmpl.Name())

	_, err = pm.Get("missing", DefaultProvider)
	assert.Error(t, err)
}

func TestPromptManager_RenderReview(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	tests := []struct {
		name        string
		data        reviewPromptData
		contains    []string
		notContains []string
	}{
		{
			name: "first chunk",
			data: reviewPromptData{Language: "go", Strictness: core.StrictnessStrict, Fragment: "package main"},
			contains: []string{
				"reviewing this go code",
				"Strictness level for review: strict",
				"package main",
				"[CONTINUE]",
			},
			notContains: []string{"improved code so far", "earlier parts"},
		},
		{
			name:     "later chunk sees earlier output",
			data:     reviewPromptData{Language: "go", Strictness: core.StrictnessStrict, Fragment: "func b() {}", PriorOutput: "func a() {}"},
			contains: []string{"earlier parts of this file", "func a() {}", "func b() {}"},
		},
		{
			name:     "continuation",
			data:     reviewPromptData{Language: "python", Strictness: core.StrictnessLenient, Fragment: "x = 1", PriorOutput: "y = 2", IsContinuation: true},
			contains: []string{"improved code so far", "y = 2", "Leave \"feedback\" empty"},
		},
		{
			name:     "custom instructions",
			data:     reviewPromptData{Language: "go", Strictness: core.StrictnessModerate, Fragment: "x", CustomInstructions: "Prefer table-driven tests."},
			contains: []string{"Prefer table-driven tests."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := pm.Render(CodeReviewPrompt, DefaultProvider, tt.data)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestParsePromptFileName(t *testing.T) {
	key, provider, err := parsePromptFileName("code_review_default.prompt")
	require.NoError(t, err)
	assert.Equal(t, CodeReviewPrompt, key)
	assert.Equal(t, DefaultProvider, provider)

	for _, bad := range []string{"review.prompt", "_default.prompt", "review_.prompt"} {
		_, _, err := parsePromptFileName(bad)
		assert.Error(t, err, bad)
	}
}
