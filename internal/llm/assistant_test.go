package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/code-pilot/internal/core"
)

func newTestAssistant(t *testing.T, model *stubModel) *Assistant {
	t.Helper()
	return NewAssistant(model.Generate, testPrompts(t), DefaultProvider, testLogger())
}

func strPtr(s string) *string { return &s }

func TestAssistant_DetectLanguage(t *testing.T) {
	longSnippet := "def greet(name):\n    return f'hello {name}'\n"

	tests := []struct {
		name      string
		code      string
		reply     string
		want      string
		wantCalls int
	}{
		{"too short makes no call", "x = 1   ", "", "", 0},
		{"supported answer", longSnippet, `{"language":"Python"}`, "python", 1},
		{"unsupported answer", longSnippet, `{"language":"cobol"}`, "", 1},
		{"omitted answer", longSnippet, `{}`, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &stubModel{replies: []string{tt.reply}}
			got, err := newTestAssistant(t, model).DetectLanguage(context.Background(), tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, model.prompts, tt.wantCalls)
		})
	}
}

func TestAssistant_DetectLanguage_ListsSupportedLanguages(t *testing.T) {
	model := &stubModel{replies: []string{`{"language":"go"}`}}
	_, err := newTestAssistant(t, model).DetectLanguage(context.Background(), "package main\n\nfunc main() {}\n")
	require.NoError(t, err)
	assert.Contains(t, model.prompts[0], `"csharp"`)
	assert.Contains(t, model.prompts[0], `"sql"`)
}

func TestAssistant_ValidateLanguage(t *testing.T) {
	tests := []struct {
		name      string
		model     *stubModel
		wantValid bool
	}{
		{"match", &stubModel{replies: []string{`{"isMatch": true}`}}, true},
		{"mismatch", &stubModel{replies: []string{`{"isMatch": false}`}}, false},
		{"backend failure fails open", &stubModel{err: errors.New("boom")}, true},
		{"unparseable answer fails open", &stubModel{replies: []string{"maybe?"}}, true},
		{"missing field fails open", &stubModel{replies: []string{`{}`}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestAssistant(t, tt.model).ValidateLanguage(context.Background(), "SELECT 1", "python")
			assert.Equal(t, tt.wantValid, got.Valid)
			if !tt.wantValid {
				assert.Equal(t, "The code does not appear to be python. Please select the correct language.", got.Message)
			} else {
				assert.Empty(t, got.Message)
			}
		})
	}
}

func TestAssistant_StyleSuggestions(t *testing.T) {
	model := &stubModel{replies: []string{`{"suggestions":["Use snake_case", "  ", "Add docstrings"]}`}}
	got, err := newTestAssistant(t, model).StyleSuggestions(context.Background(), "def f(): pass", "python", core.StrictnessStrict)
	require.NoError(t, err)
	assert.Equal(t, []string{"Use snake_case", "Add docstrings"}, got)
	assert.Contains(t, model.prompts[0], "Strictness: strict")

	_, err = newTestAssistant(t, &stubModel{}).StyleSuggestions(context.Background(), "", "python", core.StrictnessStrict)
	assert.ErrorIs(t, err, core.ErrEmptyCode)
}

func TestAssistant_Explain(t *testing.T) {
	model := &stubModel{replies: []string{"  Because **mutable defaults** are shared.  "}}
	got, err := newTestAssistant(t, model).Explain(context.Background(), "def f(x=[]): pass", "Avoid mutable default arguments", "python")
	require.NoError(t, err)
	assert.Equal(t, "Because **mutable defaults** are shared.", got)
	assert.Contains(t, model.prompts[0], "Avoid mutable default arguments")

	model = &stubModel{replies: []string{`{"explanation":"structured"}`}}
	got, err = newTestAssistant(t, model).Explain(context.Background(), "x", "y", "go")
	require.NoError(t, err)
	assert.Equal(t, "structured", got)

	_, err = newTestAssistant(t, &stubModel{}).Explain(context.Background(), "x", " ", "go")
	assert.ErrorIs(t, err, core.ErrEmptyFeedback)
}

func TestAssistant_RankReviews(t *testing.T) {
	records := []core.ReviewRecord{
		{ID: 1, Timestamp: 1, Code: "a", Language: "go", Strictness: core.StrictnessStrict, Feedback: strPtr("fb")},
		{ID: 2, Timestamp: 2, Code: "b", Language: "python", Strictness: core.StrictnessLenient},
		{ID: 3, Timestamp: 3, Code: "c", Language: "sql", Strictness: core.StrictnessModerate, CorrectedCode: strPtr("c2")},
	}

	t.Run("orders and filters ids", func(t *testing.T) {
		model := &stubModel{replies: []string{`{"relevantReviewIds":[3, 99, 1, 3]}`}}
		got, err := newTestAssistant(t, model).RankReviews(context.Background(), "sql injection", records)
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 1}, got)
		assert.Contains(t, model.prompts[0], `"correctedCode": "c2"`)
		assert.Contains(t, model.prompts[0], `"feedback": null`)
	})

	t.Run("empty query", func(t *testing.T) {
		model := &stubModel{}
		_, err := newTestAssistant(t, model).RankReviews(context.Background(), "  ", records)
		assert.ErrorIs(t, err, core.ErrEmptyQuery)
		assert.True(t, core.IsValidation(err))
		assert.Empty(t, model.prompts)
	})

	t.Run("empty history makes no call", func(t *testing.T) {
		model := &stubModel{}
		got, err := newTestAssistant(t, model).RankReviews(context.Background(), "anything", nil)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Empty(t, model.prompts)
	})

	t.Run("overloaded backend", func(t *testing.T) {
		model := &stubModel{err: errors.New("503 Service Unavailable")}
		_, err := newTestAssistant(t, model).RankReviews(context.Background(), "q", records)
		assert.True(t, core.IsOverloaded(err))
	})
}
