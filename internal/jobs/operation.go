package jobs

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/sevigo/code-pilot/internal/core"
)

// operation is one dispatched review. Its events are kept so late subscribers
// can replay them.
type operation struct {
	id      string
	session string
	req     core.ReviewRequest
	ctx     context.Context
	cancel  context.CancelFunc

	mu         sync.Mutex
	events     []core.Event
	finished   bool
	finishedAt time.Time
	changed    chan struct{}
}

func newOperation(parent context.Context, id, session string, req core.ReviewRequest) *operation {
	ctx, cancel := context.WithCancel(parent)
	return &operation{
		id:      id,
		session: session,
		req:     req,
		ctx:     ctx,
		cancel:  cancel,
		changed: make(chan struct{}),
	}
}

func (op *operation) append(ev core.Event) {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.finished {
		return
	}
	op.events = append(op.events, ev)
	op.broadcast()
}

func (op *operation) finish(now time.Time) {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.finished {
		return
	}
	op.finished = true
	op.finishedAt = now
	op.broadcast()
}

// broadcast wakes every waiter. Callers hold op.mu.
func (op *operation) broadcast() {
	close(op.changed)
	op.changed = make(chan struct{})
}

func (op *operation) isFinished() (bool, time.Time) {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.finished, op.finishedAt
}

// next blocks until events past from exist or the operation finishes.
func (op *operation) next(ctx context.Context, from int) ([]core.Event, bool, error) {
	for {
		op.mu.Lock()
		if from < len(op.events) || op.finished {
			var evs []core.Event
			if from < len(op.events) {
				evs = slices.Clone(op.events[from:])
			}
			finished := op.finished
			op.mu.Unlock()
			return evs, finished, nil
		}
		changed := op.changed
		op.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-changed:
		}
	}
}

func (op *operation) stream(ctx context.Context, from int) iter.Seq[core.Event] {
	return func(yield func(core.Event) bool) {
		pos := max(from, 0)
		for {
			evs, finished, err := op.next(ctx, pos)
			if err != nil {
				return
			}
			for _, ev := range evs {
				if !yield(ev) {
					return
				}
			}
			pos += len(evs)
			if finished && len(evs) == 0 {
				return
			}
		}
	}
}
