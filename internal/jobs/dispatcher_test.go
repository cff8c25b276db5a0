package jobs

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/code-pilot/internal/core"
	"github.com/sevigo/code-pilot/internal/metrics"
)

type reviewerFunc func(ctx context.Context, req core.ReviewRequest) iter.Seq[core.Event]

func (f reviewerFunc) Review(ctx context.Context, req core.ReviewRequest) iter.Seq[core.Event] {
	return f(ctx, req)
}

func validRequest() core.ReviewRequest {
	return core.ReviewRequest{Code: "x := 1", Language: "go", Strictness: core.StrictnessModerate}
}

// scripted emits events in order.
func scripted(events ...core.Event) core.Reviewer {
	return reviewerFunc(func(context.Context, core.ReviewRequest) iter.Seq[core.Event] {
		return func(yield func(core.Event) bool) {
			for _, ev := range events {
				if !yield(ev) {
					return
				}
			}
		}
	})
}

// blocking emits one loading event and then waits for cancellation.
func blocking(started chan<- string) core.Reviewer {
	return reviewerFunc(func(ctx context.Context, req core.ReviewRequest) iter.Seq[core.Event] {
		return func(yield func(core.Event) bool) {
			if !yield(core.Event{Kind: core.EventLoadingFirst, ChunkCount: 1}) {
				return
			}
			started <- req.Code
			<-ctx.Done()
		}
	})
}

func drain(t *testing.T, d core.JobDispatcher, id string, from int) []core.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seq, err := d.Subscribe(ctx, id, from)
	require.NoError(t, err)
	var got []core.Event
	for ev := range seq {
		got = append(got, ev)
	}
	require.NoError(t, ctx.Err(), "subscription did not end")
	return got
}

func kinds(events []core.Event) []core.EventKind {
	out := make([]core.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestDispatcher_RunsAndReplays(t *testing.T) {
	reviewer := scripted(
		core.Event{Kind: core.EventLoadingFirst, ChunkCount: 1},
		core.Event{Kind: core.EventPartial, ChunkCount: 1, Code: "x := 1"},
		core.Event{Kind: core.EventDone, ChunkCount: 1, Code: "x := 1"},
	)
	m := metrics.New()
	d := NewDispatcher(reviewer, 2, 10, m, slog.New(slog.DiscardHandler))
	defer d.Stop()

	id, err := d.Dispatch(context.Background(), "", validRequest())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	want := []core.EventKind{core.EventLoadingFirst, core.EventPartial, core.EventDone}
	assert.Equal(t, want, kinds(drain(t, d, id, 0)))

	// A second subscriber replays the finished operation, optionally from an offset.
	assert.Equal(t, want, kinds(drain(t, d, id, 0)))
	assert.Equal(t, want[2:], kinds(drain(t, d, id, 2)))
}

func TestDispatcher_RejectsInvalidRequests(t *testing.T) {
	d := NewDispatcher(scripted(), 1, 1, nil, slog.New(slog.DiscardHandler))
	defer d.Stop()

	_, err := d.Dispatch(context.Background(), "", core.ReviewRequest{Language: "go", Strictness: core.StrictnessStrict})
	assert.ErrorIs(t, err, core.ErrEmptyCode)
	assert.True(t, core.IsValidation(err))
}

func TestDispatcher_QueueFull(t *testing.T) {
	started := make(chan string, 4)
	d := NewDispatcher(blocking(started), 1, 1, nil, slog.New(slog.DiscardHandler))

	first, err := d.Dispatch(context.Background(), "", validRequest())
	require.NoError(t, err)
	<-started

	second, err := d.Dispatch(context.Background(), "", validRequest())
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), "", validRequest())
	assert.ErrorIs(t, err, core.ErrQueueFull)

	require.NoError(t, d.Cancel(first))
	<-started
	require.NoError(t, d.Cancel(second))
	d.Stop()
}

func TestDispatcher_CancelEndsStreamWithoutTerminalEvent(t *testing.T) {
	started := make(chan string, 1)
	d := NewDispatcher(blocking(started), 1, 1, nil, slog.New(slog.DiscardHandler))
	defer d.Stop()

	id, err := d.Dispatch(context.Background(), "", validRequest())
	require.NoError(t, err)
	<-started

	var (
		wg  sync.WaitGroup
		got []core.Event
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		got = drain(t, d, id, 0)
	}()

	require.NoError(t, d.Cancel(id))
	wg.Wait()
	assert.Equal(t, []core.EventKind{core.EventLoadingFirst}, kinds(got))
}

func TestDispatcher_SessionSupersedesPreviousReview(t *testing.T) {
	started := make(chan string, 2)
	d := NewDispatcher(blocking(started), 2, 4, nil, slog.New(slog.DiscardHandler))
	defer d.Stop()

	req := validRequest()
	first, err := d.Dispatch(context.Background(), "tab-1", req)
	require.NoError(t, err)
	assert.Equal(t, req.Code, <-started)

	req.Code = "y := 2"
	second, err := d.Dispatch(context.Background(), "tab-1", req)
	require.NoError(t, err)
	assert.Equal(t, "y := 2", <-started)

	// The first operation was cancelled by the second dispatch.
	assert.Len(t, drain(t, d, first, 0), 1)

	require.NoError(t, d.Cancel(second))
	assert.Len(t, drain(t, d, second, 0), 1)
}

func TestDispatcher_UnknownOperation(t *testing.T) {
	d := NewDispatcher(scripted(), 1, 1, nil, slog.New(slog.DiscardHandler))
	defer d.Stop()

	_, err := d.Subscribe(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, core.ErrUnknownOperation)
	assert.ErrorIs(t, d.Cancel("missing"), core.ErrUnknownOperation)
}

func TestDispatcher_StopRejectsNewWork(t *testing.T) {
	d := NewDispatcher(scripted(), 1, 1, nil, slog.New(slog.DiscardHandler))
	d.Stop()
	d.Stop()

	_, err := d.Dispatch(context.Background(), "", validRequest())
	assert.True(t, errors.Is(err, core.ErrQueueFull))
}

func TestDispatcher_PrunesFinishedOperations(t *testing.T) {
	d := NewDispatcher(scripted(core.Event{Kind: core.EventDone}), 1, 4, nil, slog.New(slog.DiscardHandler)).(*dispatcher)
	defer d.Stop()

	id, err := d.Dispatch(context.Background(), "s", validRequest())
	require.NoError(t, err)
	drain(t, d, id, 0)

	d.mu.Lock()
	d.now = func() time.Time { return time.Now().Add(2 * DefaultRetention) }
	d.mu.Unlock()

	_, err = d.Dispatch(context.Background(), "", validRequest())
	require.NoError(t, err)

	_, err = d.Subscribe(context.Background(), id, 0)
	assert.ErrorIs(t, err, core.ErrUnknownOperation)
}
