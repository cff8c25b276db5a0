package core

import "context"

// CompletionRequest is one call to the language-model backend.
// PriorOutput carries the improved code accumulated so far; it is required for
// continuation calls and provides cross-chunk context otherwise.
type CompletionRequest struct {
	Fragment       string
	Language       string
	Strictness     Strictness
	IsContinuation bool
	PriorOutput    string
}

// CompletionResult is a single, ephemeral response from the backend.
type CompletionResult struct {
	// Feedback is only meaningful on the first call of the first chunk.
	Feedback string
	// Code is a fragment of improved code, possibly ending with a continuation marker.
	Code string
	// Continue is the backend's explicit out-of-band "more output follows" flag.
	Continue bool
}

//go:generate mockgen -destination=../../mocks/mock_completion_client.go -package=mocks . CompletionClient

// CompletionClient is the bounded-output completion service the review
// protocol is built on. Implementations must be safe to call sequentially
// from a single goroutine; no two calls for the same review overlap.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}
