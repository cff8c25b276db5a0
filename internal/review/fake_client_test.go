package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/sevigo/code-pilot/internal/core"
)

type step struct {
	res core.CompletionResult
	err error
	// hook runs before the step returns, e.g. to cancel the caller's context.
	hook func()
}

// scriptedClient replays a fixed list of responses and records every request.
type scriptedClient struct {
	mu    sync.Mutex
	steps []step
	calls []core.CompletionRequest
}

func newScriptedClient(steps ...step) *scriptedClient {
	return &scriptedClient{steps: steps}
}

func (c *scriptedClient) Complete(_ context.Context, req core.CompletionRequest) (core.CompletionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, req)
	if len(c.steps) == 0 {
		return core.CompletionResult{}, errors.New("scripted client: no more steps")
	}
	s := c.steps[0]
	c.steps = c.steps[1:]
	if s.hook != nil {
		s.hook()
	}
	return s.res, s.err
}

func (c *scriptedClient) Calls() []core.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.CompletionRequest(nil), c.calls...)
}

func code(s string) step {
	return step{res: core.CompletionResult{Code: s}}
}

func codeWithFeedback(feedback, s string) step {
	return step{res: core.CompletionResult{Feedback: feedback, Code: s}}
}

func fail(err error) step {
	return step{err: err}
}

type memorySaver struct {
	records []*core.ReviewRecord
	err     error
}

func (m *memorySaver) Add(_ context.Context, rec *core.ReviewRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
