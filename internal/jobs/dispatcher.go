// Package jobs runs review operations on a bounded worker pool.
package jobs

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sevigo/code-pilot/internal/core"
	"github.com/sevigo/code-pilot/internal/metrics"
)

const (
	defaultQueueSize = 100
	// DefaultRetention is how long finished operations stay subscribable.
	DefaultRetention = 10 * time.Minute
)

// dispatcher implements core.JobDispatcher and manages a pool of worker
// goroutines that drain review operations.
type dispatcher struct {
	reviewer   core.Reviewer
	queue      chan *operation
	maxWorkers int
	retention  time.Duration
	metrics    *metrics.Metrics
	wg         sync.WaitGroup
	logger     *slog.Logger

	baseCtx context.Context
	stopAll context.CancelFunc

	mu       sync.Mutex
	ops      map[string]*operation
	sessions map[string]*operation
	stopped  bool
	now      func() time.Time
}

// NewDispatcher initializes a dispatcher with a worker pool.
// If maxWorkers is 0 or negative, it defaults to 1. m may be nil.
func NewDispatcher(reviewer core.Reviewer, maxWorkers, queueSize int, m *metrics.Metrics, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	baseCtx, stopAll := context.WithCancel(context.Background())
	d := &dispatcher{
		reviewer:   reviewer,
		queue:      make(chan *operation, queueSize),
		maxWorkers: maxWorkers,
		retention:  DefaultRetention,
		metrics:    m,
		logger:     logger,
		baseCtx:    baseCtx,
		stopAll:    stopAll,
		ops:        make(map[string]*operation),
		sessions:   make(map[string]*operation),
		now:        time.Now,
	}
	d.startWorkers()
	return d
}

func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("starting review worker", "id", workerID)

	for op := range d.queue {
		d.process(workerID, op)
	}

	d.logger.Debug("shutting down review worker", "id", workerID)
}

func (d *dispatcher) process(workerID int, op *operation) {
	defer op.finish(d.now())
	defer op.cancel()

	if op.ctx.Err() != nil {
		d.logger.Info("skipping cancelled review", "operation", op.id)
		d.record(nil)
		return
	}

	d.logger.Info("worker processing review",
		"worker_id", workerID,
		"operation", op.id,
		"language", op.req.Language,
	)

	var finish func(string)
	if d.metrics != nil {
		finish = d.metrics.ReviewStarted()
	}

	var terminal *core.Event
	for ev := range d.reviewer.Review(op.ctx, op.req) {
		if d.metrics != nil {
			d.metrics.Observe(ev)
		}
		op.append(ev)
		if ev.Kind.Terminal() {
			terminal = &ev
		}
	}

	if terminal != nil && terminal.Kind == core.EventError {
		d.logger.Warn("review operation failed", "operation", op.id, "error", terminal.Err)
	}
	if finish != nil {
		finish(metrics.OutcomeOf(terminal))
	}
}

func (d *dispatcher) record(terminal *core.Event) {
	if d.metrics != nil {
		d.metrics.ReviewStarted()(metrics.OutcomeOf(terminal))
	}
}

// Dispatch validates req and queues it. Invalid requests are rejected here so
// callers can report them synchronously.
func (d *dispatcher) Dispatch(_ context.Context, session string, req core.ReviewRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return "", fmt.Errorf("dispatcher is stopped: %w", core.ErrQueueFull)
	}
	d.pruneLocked()

	op := newOperation(d.baseCtx, uuid.NewString(), session, req)
	select {
	case d.queue <- op:
	default:
		op.cancel()
		return "", fmt.Errorf("cannot accept new review: %w", core.ErrQueueFull)
	}

	if session != "" {
		if prev, ok := d.sessions[session]; ok {
			d.logger.Info("superseding previous review", "session", session, "operation", prev.id)
			prev.cancel()
		}
		d.sessions[session] = op
	}
	d.ops[op.id] = op

	d.logger.Info("queued review", "operation", op.id, "language", req.Language, "strictness", req.Strictness)
	return op.id, nil
}

func (d *dispatcher) lookup(id string) (*operation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	op, ok := d.ops[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownOperation, id)
	}
	return op, nil
}

func (d *dispatcher) Subscribe(ctx context.Context, id string, from int) (iter.Seq[core.Event], error) {
	op, err := d.lookup(id)
	if err != nil {
		return nil, err
	}
	return op.stream(ctx, from), nil
}

func (d *dispatcher) Cancel(id string) error {
	op, err := d.lookup(id)
	if err != nil {
		return err
	}
	op.cancel()
	d.logger.Info("review cancelled by client", "operation", id)
	return nil
}

// pruneLocked forgets operations that finished longer than retention ago.
func (d *dispatcher) pruneLocked() {
	cutoff := d.now().Add(-d.retention)
	for id, op := range d.ops {
		finished, at := op.isFinished()
		if !finished || at.After(cutoff) {
			continue
		}
		delete(d.ops, id)
		if d.sessions[op.session] == op {
			delete(d.sessions, op.session)
		}
	}
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to finish.
func (d *dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.logger.Info("stopping dispatcher and waiting for reviews to finish")
	d.wg.Wait()
	d.stopAll()
	d.logger.Info("all review operations have finished")
}
