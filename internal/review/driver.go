package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/code-pilot/internal/core"
)

// DefaultMaxContinuations caps how many continuation calls one chunk may need.
const DefaultMaxContinuations = 50

// DriveResult is what one chunk contributed to the review.
type DriveResult struct {
	// Feedback is set only when driving the first chunk of a request.
	Feedback    string
	HasFeedback bool
	// Code is the full accumulated improved code, including everything passed in
	// as the initial accumulation.
	Code string
	// Calls is the number of completion calls made for the chunk.
	Calls int
}

// Driver runs the continuation loop for a single chunk.
type Driver struct {
	client           core.CompletionClient
	maxContinuations int
	callTimeout      time.Duration
	logger           *slog.Logger
}

// NewDriver returns a Driver. A non-positive maxContinuations falls back to
// DefaultMaxContinuations; a non-positive callTimeout disables the per-call
// deadline.
func NewDriver(client core.CompletionClient, maxContinuations int, callTimeout time.Duration, logger *slog.Logger) *Driver {
	if maxContinuations <= 0 {
		maxContinuations = DefaultMaxContinuations
	}
	return &Driver{
		client:           client,
		maxContinuations: maxContinuations,
		callTimeout:      callTimeout,
		logger:           logger,
	}
}

// Drive calls the backend for chunk until it stops asking for more output.
// Every call carries the accumulated code so far, so the first call of a later
// chunk sees everything produced for the earlier ones. onPartial, if set,
// receives the accumulation after every successful call.
//
// Errors are classified with core.ClassifyBackendError. Cancellation of ctx
// yields an error wrapping core.ErrCancelled; no partial result is returned on
// any failure.
func (d *Driver) Drive(
	ctx context.Context,
	req core.ReviewRequest,
	chunk core.Chunk,
	accumulated string,
	firstChunk bool,
	onPartial func(code string),
) (DriveResult, error) {
	var res DriveResult
	continuations := 0

	for {
		if err := ctx.Err(); err != nil {
			return DriveResult{}, fmt.Errorf("%w: %w", core.ErrCancelled, err)
		}

		isContinuation := res.Calls > 0
		if isContinuation {
			if continuations >= d.maxContinuations {
				d.logger.Warn("continuation cap reached",
					"chunk", chunk.Index,
					"continuations", continuations,
				)
				return DriveResult{}, &core.TruncationExceededError{Chunk: chunk.Index, Continuations: continuations}
			}
			continuations++
		}

		out, err := d.call(ctx, core.CompletionRequest{
			Fragment:       chunk.Text,
			Language:       req.Language,
			Strictness:     req.Strictness,
			IsContinuation: isContinuation,
			PriorOutput:    accumulated,
		})
		res.Calls++

		if ctxErr := ctx.Err(); ctxErr != nil {
			return DriveResult{}, fmt.Errorf("%w: %w", core.ErrCancelled, ctxErr)
		}
		if err != nil {
			d.logger.Error("completion call failed",
				"chunk", chunk.Index,
				"continuation", isContinuation,
				"error", err,
			)
			return DriveResult{}, core.ClassifyBackendError(err)
		}

		if firstChunk && !isContinuation {
			res.Feedback = out.Feedback
			res.HasFeedback = true
		}

		// A marker can arrive split across two fragments.
		accumulated = StripMarker(accumulated + StripMarker(out.Code))
		if onPartial != nil {
			onPartial(accumulated)
		}

		if !ContinuationRequested(out) {
			break
		}
		d.logger.Debug("backend requested continuation", "chunk", chunk.Index, "continuations", continuations)
	}

	res.Code = accumulated
	return res, nil
}

func (d *Driver) call(ctx context.Context, req core.CompletionRequest) (core.CompletionResult, error) {
	if d.callTimeout <= 0 {
		return d.client.Complete(ctx, req)
	}
	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	out, err := d.client.Complete(callCtx, req)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return out, fmt.Errorf("completion call timed out after %s: %w", d.callTimeout, err)
	}
	return out, err
}
