package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/code-pilot/internal/core"
)

func TestModelClient_Complete(t *testing.T) {
	tests := []struct {
		name    string
		req     core.CompletionRequest
		reply   string
		want    core.CompletionResult
		wantErr bool
	}{
		{
			name:  "first call with feedback and marker",
			req:   core.CompletionRequest{Fragment: "x=1", Language: "python", Strictness: core.StrictnessModerate},
			reply: `{"feedback":"1. Bugs: none","correctedCode":"x = 1\n[CONTINUE]","continue":false}`,
			want:  core.CompletionResult{Feedback: "1. Bugs: none", Code: "x = 1\n[CONTINUE]"},
		},
		{
			name:  "explicit continue flag",
			req:   core.CompletionRequest{Fragment: "x=1", Language: "python", Strictness: core.StrictnessModerate},
			reply: "```json\n{\"feedback\":\"f\",\"correctedCode\":\"a\",\"continue\":true}\n```",
			want:  core.CompletionResult{Feedback: "f", Code: "a", Continue: true},
		},
		{
			name:  "continuation answered with plain code",
			req:   core.CompletionRequest{Fragment: "x=1", Language: "python", Strictness: core.StrictnessModerate, IsContinuation: true, PriorOutput: "x = 1\n"},
			reply: "```python\ny = 2\n```",
			want:  core.CompletionResult{Code: "y = 2"},
		},
		{
			name:    "first call that is not JSON",
			req:     core.CompletionRequest{Fragment: "x=1", Language: "python", Strictness: core.StrictnessModerate},
			reply:   "Sorry, I can't help with that.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &stubModel{replies: []string{tt.reply}}
			client := NewModelClient(model.Generate, testPrompts(t), DefaultProvider, "", testLogger())

			got, err := client.Complete(context.Background(), tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			require.Len(t, model.prompts, 1)
			assert.Contains(t, model.prompts[0], tt.req.Fragment)
			if tt.req.PriorOutput != "" {
				assert.Contains(t, model.prompts[0], tt.req.PriorOutput)
			}
		})
	}
}

func TestModelClient_PropagatesBackendError(t *testing.T) {
	model := &stubModel{err: errors.New("googleapi: Error 503: overloaded")}
	client := NewModelClient(model.Generate, testPrompts(t), "gemini", "", testLogger())

	_, err := client.Complete(context.Background(), core.CompletionRequest{Fragment: "x", Language: "go", Strictness: core.StrictnessStrict})
	require.Error(t, err)
	assert.True(t, core.IsOverloaded(core.ClassifyBackendError(err)))
}

func TestModelClient_UsesCustomInstructions(t *testing.T) {
	model := &stubModel{replies: []string{`{"feedback":"","correctedCode":""}`}}
	client := NewModelClient(model.Generate, testPrompts(t), "ollama", "Flag every panic.", testLogger())

	_, err := client.Complete(context.Background(), core.CompletionRequest{Fragment: "x", Language: "go", Strictness: core.StrictnessStrict})
	require.NoError(t, err)
	assert.Contains(t, model.prompts[0], "Flag every panic.")
}
