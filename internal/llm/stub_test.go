package llm

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubModel answers every prompt with the next canned reply and keeps the prompts.
type stubModel struct {
	replies []string
	err     error
	prompts []string
}

func (s *stubModel) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPrompts(t *testing.T) *PromptManager {
	t.Helper()
	pm, err := NewPromptManager()
	require.NoError(t, err)
	return pm
}
