package review

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/sevigo/code-pilot/internal/core"
)

// RecordSaver persists completed reviews.
type RecordSaver interface {
	Add(ctx context.Context, rec *core.ReviewRecord) error
}

// Orchestrator drives every chunk of a request through the Driver in order and
// reports progress as a stream of events.
type Orchestrator struct {
	driver   *Driver
	saver    RecordSaver
	maxLines int
	now      func() time.Time
	logger   *slog.Logger
}

// NewOrchestrator creates an Orchestrator. saver may be nil, in which case
// completed reviews are not persisted.
func NewOrchestrator(driver *Driver, saver RecordSaver, maxLines int, logger *slog.Logger) *Orchestrator {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Orchestrator{
		driver:   driver,
		saver:    saver,
		maxLines: maxLines,
		now:      time.Now,
		logger:   logger,
	}
}

var _ core.Reviewer = (*Orchestrator)(nil)

// Review returns the progress stream of one review. Nothing runs until the
// sequence is iterated, and each iteration is an independent operation.
//
// The stream ends with exactly one EventDone or EventError, except when ctx is
// cancelled or the consumer stops early: the stream then ends without a
// terminal event and nothing is saved.
func (o *Orchestrator) Review(ctx context.Context, req core.ReviewRequest) iter.Seq[core.Event] {
	return func(yield func(core.Event) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		emit := func(ev core.Event) bool {
			if stopped {
				return false
			}
			if !yield(ev) {
				stopped = true
				cancel()
				return false
			}
			return true
		}

		if err := req.Validate(); err != nil {
			o.logger.Warn("rejecting review request", "error", err)
			emit(core.Event{Kind: core.EventError, Err: err})
			return
		}

		o.run(ctx, req, emit)
	}
}

func (o *Orchestrator) run(ctx context.Context, req core.ReviewRequest, emit func(core.Event) bool) {
	chunks := Split(req.Code, o.maxLines)
	total := len(chunks)
	o.logger.Info("starting review",
		"language", req.Language,
		"strictness", req.Strictness,
		"chunks", total,
	)

	var (
		accumulated string
		feedback    string
		hasFeedback bool
	)

	for _, chunk := range chunks {
		kind := core.EventLoadingContinuation
		if chunk.Index == 0 {
			kind = core.EventLoadingFirst
		}
		if !emit(core.Event{Kind: kind, ChunkIndex: chunk.Index, ChunkCount: total}) {
			return
		}

		onPartial := func(code string) {
			emit(core.Event{Kind: core.EventPartial, ChunkIndex: chunk.Index, ChunkCount: total, Code: code})
		}

		res, err := o.driver.Drive(ctx, req, chunk, accumulated, chunk.Index == 0, onPartial)
		if err != nil {
			if errors.Is(err, core.ErrCancelled) {
				o.logger.Info("review cancelled", "chunk", chunk.Index)
				return
			}
			o.logger.Error("review failed", "chunk", chunk.Index, "error", err)
			emit(core.Event{Kind: core.EventError, ChunkIndex: chunk.Index, ChunkCount: total, Err: err})
			return
		}
		if ctx.Err() != nil {
			return
		}

		accumulated = res.Code
		if res.HasFeedback {
			feedback = res.Feedback
			hasFeedback = true
		}
	}

	var saved *core.ReviewRecord
	if hasFeedback && accumulated != "" {
		saved = o.save(ctx, req, feedback, accumulated)
		if saved != nil && !emit(core.Event{Kind: core.EventSaved, ChunkIndex: total - 1, ChunkCount: total, Record: saved}) {
			return
		}
	}

	o.logger.Info("review completed", "chunks", total, "code_len", len(accumulated), "saved", saved != nil)
	emit(core.Event{
		Kind:       core.EventDone,
		ChunkIndex: total - 1,
		ChunkCount: total,
		Feedback:   feedback,
		Code:       accumulated,
		Record:     saved,
	})
}

// save persists the completed review. A failing store does not fail the review.
func (o *Orchestrator) save(ctx context.Context, req core.ReviewRequest, feedback, code string) *core.ReviewRecord {
	if o.saver == nil {
		return nil
	}
	now := o.now().UnixMilli()
	rec := &core.ReviewRecord{
		ID:            now,
		Timestamp:     now,
		Title:         core.DefaultTitle(req.Language),
		Code:          req.Code,
		Language:      req.Language,
		Strictness:    req.Strictness,
		CorrectedCode: &code,
	}
	if feedback != "" {
		rec.Feedback = &feedback
	}
	if err := o.saver.Add(ctx, rec); err != nil {
		o.logger.Error("failed to save review to history", "error", err)
		return nil
	}
	return rec
}

// Run drains the review stream, passing every event to fn when fn is non-nil,
// and returns the terminal outcome.
func Run(ctx context.Context, r core.Reviewer, req core.ReviewRequest, fn func(core.Event)) (core.Outcome, error) {
	for ev := range r.Review(ctx, req) {
		if fn != nil {
			fn(ev)
		}
		switch ev.Kind {
		case core.EventDone:
			return core.Outcome{Feedback: ev.Feedback, CorrectedCode: ev.Code, Record: ev.Record}, nil
		case core.EventError:
			return core.Outcome{}, ev.Err
		}
	}
	if err := ctx.Err(); err != nil {
		return core.Outcome{}, fmt.Errorf("%w: %w", core.ErrCancelled, err)
	}
	return core.Outcome{}, core.ErrCancelled
}
