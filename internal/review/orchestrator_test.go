package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/code-pilot/internal/core"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func newTestOrchestrator(client core.CompletionClient, saver RecordSaver, maxLines int) *Orchestrator {
	o := NewOrchestrator(NewDriver(client, 0, 0, discardLogger()), saver, maxLines, discardLogger())
	o.now = func() time.Time { return fixedNow }
	return o
}

func collect(ctx context.Context, o *Orchestrator, req core.ReviewRequest) []core.Event {
	var events []core.Event
	for ev := range o.Review(ctx, req) {
		events = append(events, ev)
	}
	return events
}

func kinds(events []core.Event) []core.EventKind {
	out := make([]core.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestOrchestrator_SingleChunkWithContinuation(t *testing.T) {
	client := newScriptedClient(
		codeWithFeedback("1. Syntax Errors: none", "partA[CONTINUE]"),
		code("partB"),
	)
	saver := &memorySaver{}
	o := newTestOrchestrator(client, saver, 600)
	req := core.ReviewRequest{Code: "print('hi')", Language: "python", Strictness: core.StrictnessLenient}

	events := collect(context.Background(), o, req)

	wantKinds := []core.EventKind{
		core.EventLoadingFirst,
		core.EventPartial,
		core.EventPartial,
		core.EventSaved,
		core.EventDone,
	}
	if diff := cmp.Diff(wantKinds, kinds(events)); diff != "" {
		t.Fatalf("unexpected event sequence (-want +got):\n%s", diff)
	}

	done := events[len(events)-1]
	assert.Equal(t, "partApartB", done.Code)
	assert.Equal(t, "1. Syntax Errors: none", done.Feedback)

	require.Len(t, saver.records, 1)
	rec := saver.records[0]
	assert.Equal(t, fixedNow.UnixMilli(), rec.ID)
	assert.Equal(t, fixedNow.UnixMilli(), rec.Timestamp)
	assert.Equal(t, "Python Review Snippet", rec.Title)
	assert.Equal(t, req.Code, rec.Code)
	require.NotNil(t, rec.CorrectedCode)
	assert.Equal(t, "partApartB", *rec.CorrectedCode)
	require.NotNil(t, rec.Feedback)
	assert.Equal(t, "1. Syntax Errors: none", *rec.Feedback)
	assert.Same(t, rec, done.Record)
}

func TestOrchestrator_MultiChunk(t *testing.T) {
	client := newScriptedClient(
		codeWithFeedback("feedback", "one[CONTINUE]"),
		code("two"),
		codeWithFeedback("ignored", "three"),
		code("four"),
	)
	saver := &memorySaver{}
	o := newTestOrchestrator(client, saver, 600)
	req := core.ReviewRequest{Code: numberedLines(1500), Language: "go", Strictness: core.StrictnessStrict}

	events := collect(context.Background(), o, req)

	wantKinds := []core.EventKind{
		core.EventLoadingFirst, core.EventPartial, core.EventPartial,
		core.EventLoadingContinuation, core.EventPartial,
		core.EventLoadingContinuation, core.EventPartial,
		core.EventSaved, core.EventDone,
	}
	if diff := cmp.Diff(wantKinds, kinds(events)); diff != "" {
		t.Fatalf("unexpected event sequence (-want +got):\n%s", diff)
	}
	for _, ev := range events {
		assert.Equal(t, 3, ev.ChunkCount)
	}

	done := events[len(events)-1]
	assert.Equal(t, "onetwothreefour", done.Code)
	assert.Equal(t, "feedback", done.Feedback)

	chunks := Split(req.Code, 600)
	calls := client.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, chunks[0].Text, calls[0].Fragment)
	assert.Equal(t, chunks[0].Text, calls[1].Fragment)
	assert.True(t, calls[1].IsContinuation)
	assert.Equal(t, chunks[1].Text, calls[2].Fragment)
	assert.False(t, calls[2].IsContinuation)
	assert.Equal(t, "onetwo", calls[2].PriorOutput, "a later chunk sees the accumulation of earlier chunks")
	assert.Equal(t, chunks[2].Text, calls[3].Fragment)
	assert.Equal(t, "onetwothree", calls[3].PriorOutput)
}

func TestOrchestrator_ValidationMakesNoCalls(t *testing.T) {
	tests := []struct {
		name string
		req  core.ReviewRequest
		want error
	}{
		{"empty code", core.ReviewRequest{Code: "  ", Language: "go", Strictness: core.StrictnessStrict}, core.ErrEmptyCode},
		{"missing language", core.ReviewRequest{Code: "x", Strictness: core.StrictnessStrict}, core.ErrMissingLanguage},
		{"invalid strictness", core.ReviewRequest{Code: "x", Language: "go", Strictness: "brutal"}, core.ErrInvalidStrictness},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newScriptedClient(code("never"))
			saver := &memorySaver{}
			o := newTestOrchestrator(client, saver, 600)

			events := collect(context.Background(), o, tt.req)
			require.Len(t, events, 1)
			assert.Equal(t, core.EventError, events[0].Kind)
			assert.ErrorIs(t, events[0].Err, tt.want)
			assert.True(t, core.IsValidation(events[0].Err))
			assert.Empty(t, client.Calls())
			assert.Empty(t, saver.records)
		})
	}
}

func TestOrchestrator_FailureStopsAndSavesNothing(t *testing.T) {
	client := newScriptedClient(
		codeWithFeedback("fb", "one"),
		fail(errors.New("googleapi: Error 503: The model is overloaded")),
		code("never requested"),
	)
	saver := &memorySaver{}
	o := newTestOrchestrator(client, saver, 1)
	req := core.ReviewRequest{Code: "a\nb\nc", Language: "go", Strictness: core.StrictnessModerate}

	events := collect(context.Background(), o, req)

	last := events[len(events)-1]
	assert.Equal(t, core.EventError, last.Kind)
	assert.Equal(t, 1, last.ChunkIndex)
	assert.True(t, core.IsOverloaded(last.Err))
	assert.Len(t, client.Calls(), 2, "no further calls after a failure")
	assert.Empty(t, saver.records)
	for _, ev := range events {
		assert.NotEqual(t, core.EventDone, ev.Kind)
	}
}

func TestOrchestrator_SaveFailureIsNotFatal(t *testing.T) {
	client := newScriptedClient(codeWithFeedback("fb", "fixed"))
	saver := &memorySaver{err: errors.New("disk full")}
	o := newTestOrchestrator(client, saver, 600)

	events := collect(context.Background(), o, goRequest)

	assert.Equal(t, []core.EventKind{core.EventLoadingFirst, core.EventPartial, core.EventDone}, kinds(events))
	assert.Nil(t, events[2].Record)
	assert.Equal(t, "fixed", events[2].Code)
}

func TestOrchestrator_EmptyImprovedCodeIsNotSaved(t *testing.T) {
	client := newScriptedClient(codeWithFeedback("looks good", ""))
	saver := &memorySaver{}
	o := newTestOrchestrator(client, saver, 600)

	outcome, err := Run(context.Background(), o, goRequest, nil)
	require.NoError(t, err)
	assert.Equal(t, "looks good", outcome.Feedback)
	assert.Empty(t, outcome.CorrectedCode)
	assert.Nil(t, outcome.Record)
	assert.Empty(t, saver.records)
}

func TestOrchestrator_NilSaver(t *testing.T) {
	client := newScriptedClient(codeWithFeedback("fb", "code"))
	o := newTestOrchestrator(client, nil, 600)

	outcome, err := Run(context.Background(), o, goRequest, nil)
	require.NoError(t, err)
	assert.Equal(t, "code", outcome.CorrectedCode)
	assert.Nil(t, outcome.Record)
}

func TestOrchestrator_CancellationIsSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newScriptedClient(
		codeWithFeedback("fb", "one"),
		step{res: core.CompletionResult{Code: "two"}, hook: cancel},
		code("three"),
	)
	saver := &memorySaver{}
	o := newTestOrchestrator(client, saver, 1)
	req := core.ReviewRequest{Code: "a\nb\nc", Language: "go", Strictness: core.StrictnessModerate}

	events := collect(ctx, o, req)

	for _, ev := range events {
		assert.False(t, ev.Kind.Terminal(), "cancelled review must not emit %s", ev.Kind)
	}
	assert.Len(t, client.Calls(), 2)
	assert.Empty(t, saver.records)

	_, err := Run(ctx, o, req, nil)
	assert.ErrorIs(t, err, core.ErrCancelled)
}

func TestOrchestrator_ConsumerStopsEarly(t *testing.T) {
	client := newScriptedClient(
		codeWithFeedback("fb", "one[CONTINUE]"),
		code("two"),
	)
	saver := &memorySaver{}
	o := newTestOrchestrator(client, saver, 600)

	for ev := range o.Review(context.Background(), goRequest) {
		if ev.Kind == core.EventPartial {
			break
		}
	}
	assert.Len(t, client.Calls(), 1)
	assert.Empty(t, saver.records)
}

func TestOrchestrator_StreamIsRestartable(t *testing.T) {
	client := newScriptedClient(
		codeWithFeedback("fb", "first"),
		codeWithFeedback("fb", "second"),
	)
	o := newTestOrchestrator(client, nil, 600)
	stream := o.Review(context.Background(), goRequest)

	var results []string
	for range 2 {
		for ev := range stream {
			if ev.Kind == core.EventDone {
				results = append(results, ev.Code)
			}
		}
	}
	assert.Equal(t, []string{"first", "second"}, results, "each iteration starts from an empty accumulation")
}

func TestRun_ReturnsBackendError(t *testing.T) {
	client := newScriptedClient(fail(errors.New("invalid api key")))
	o := newTestOrchestrator(client, nil, 600)

	var seen []core.EventKind
	_, err := Run(context.Background(), o, goRequest, func(ev core.Event) { seen = append(seen, ev.Kind) })
	require.Error(t, err)
	assert.False(t, core.IsOverloaded(err))
	assert.Contains(t, core.UserMessage(err), "invalid api key")
	assert.Equal(t, []core.EventKind{core.EventLoadingFirst, core.EventError}, seen)
}
