package core

import (
	"context"
	"iter"
)

// Reviewer runs the long-form review protocol. The returned sequence is lazy:
// nothing happens until it is ranged over, and every iteration starts a fresh
// operation with its own accumulation state.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) iter.Seq[Event]
}

// JobDispatcher defines the contract for a system that can accept and queue
// review operations for asynchronous processing. This interface decouples the
// request source (an HTTP handler) from the execution mechanism.
type JobDispatcher interface {
	// Dispatch queues a review and returns its operation ID. A non-empty session
	// cancels that session's previous in-flight operation. It returns
	// ErrQueueFull when no more work can be accepted, providing a mechanism for
	// backpressure.
	Dispatch(ctx context.Context, session string, req ReviewRequest) (string, error)

	// Subscribe replays the operation's events starting at offset from and then
	// follows new ones until a terminal event, cancellation, or ctx is done.
	Subscribe(ctx context.Context, id string, from int) (iter.Seq[Event], error)

	// Cancel stops an operation. Cancelled operations emit no further events.
	Cancel(id string) error

	// Stop closes the queue and waits for running operations to finish.
	Stop()
}
