package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/code-pilot/internal/app"
	"github.com/sevigo/code-pilot/internal/core"
)

func newTestModel() *model {
	m := initialModel(ThemeCyan, "")
	m.isLoading = false
	m.services = &app.Services{}
	return m
}

func historyText(m *model) string {
	return strings.Join(m.history, "\n")
}

// beginReview puts the model in the state startReview leaves it in without
// touching the services.
func beginReview(m *model) {
	m.run++
	m.reviewing = true
	m.cancel = func() {}
	m.source = "main.go"
	m.reviewLang = "go"
}

func send(m *model, ev core.Event) tea.Cmd {
	_, cmd := m.Update(reviewEventMsg{run: m.run, event: ev, events: make(chan core.Event)})
	return cmd
}

func TestModel_ReviewStream(t *testing.T) {
	m := newTestModel()
	beginReview(m)

	send(m, core.Event{Kind: core.EventLoadingFirst, ChunkCount: 2})
	assert.Equal(t, 2, m.chunkCount)
	assert.Equal(t, 0.0, m.progressPercent())

	send(m, core.Event{Kind: core.EventPartial, ChunkCount: 2, Feedback: "- rename x", Code: "x := 1\n"})
	assert.True(t, m.typing)
	assert.Equal(t, 0.5, m.progressPercent())

	send(m, core.Event{Kind: core.EventLoadingFirst, ChunkIndex: 1, ChunkCount: 2})
	send(m, core.Event{Kind: core.EventPartial, ChunkIndex: 1, ChunkCount: 2, Feedback: "- rename x\n- add docs", Code: "x := 1\ny := 2\n"})
	assert.Equal(t, 1.0, m.progressPercent())

	record := &core.ReviewRecord{ID: 7, Title: "Go Review Snippet"}
	send(m, core.Event{Kind: core.EventSaved, ChunkIndex: 1, ChunkCount: 2, Record: record})
	cmd := send(m, core.Event{Kind: core.EventDone, ChunkIndex: 1, ChunkCount: 2, Feedback: "- rename x\n- add docs", Code: "x := 1\ny := 2\n"})

	assert.Nil(t, cmd)
	assert.False(t, m.reviewing)
	out := historyText(m)
	assert.Contains(t, out, "#7")
	assert.Contains(t, out, "REVIEW COMPLETE")
	assert.Contains(t, out, "add docs")
	assert.Contains(t, out, "y := 2")

	require.NotNil(t, m.last)
	assert.Equal(t, "x := 1\ny := 2\n", m.last.code)
	assert.Equal(t, "go", m.last.language)
}

func TestModel_ReviewErrorKeepsPartialCode(t *testing.T) {
	m := newTestModel()
	beginReview(m)

	send(m, core.Event{Kind: core.EventPartial, ChunkCount: 3, Code: "partial()"})
	send(m, core.Event{Kind: core.EventError, ChunkIndex: 1, ChunkCount: 3, Err: &core.BackendError{Overloaded: true, Err: errors.New("503")}})

	assert.False(t, m.reviewing)
	out := historyText(m)
	assert.Contains(t, out, core.BusyMessage)
	assert.Contains(t, out, "partial()")
	assert.Nil(t, m.last)
}

func TestModel_CancelDropsLateEvents(t *testing.T) {
	m := newTestModel()
	beginReview(m)
	staleRun := m.run

	m.processCommand("/cancel")
	assert.False(t, m.reviewing)
	assert.Contains(t, historyText(m), "Review cancelled")

	before := len(m.history)
	_, cmd := m.Update(reviewEventMsg{run: staleRun, event: core.Event{Kind: core.EventDone, Code: "late"}})
	assert.Nil(t, cmd)
	_, _ = m.Update(reviewClosedMsg{run: staleRun})
	assert.Len(t, m.history, before)
}

func TestModel_StartFailureOfCancelledRunIsIgnored(t *testing.T) {
	m := newTestModel()
	beginReview(m)
	cancelledRun := m.run
	m.cancelReview()

	beginReview(m)
	currentRun := m.run
	require.NotEqual(t, cancelledRun, currentRun)

	_, cmd := m.Update(reviewFailedMsg{run: cancelledRun, err: context.Canceled})
	assert.Nil(t, cmd)
	assert.True(t, m.reviewing)
	assert.Equal(t, currentRun, m.run)
	assert.NotContains(t, historyText(m), context.Canceled.Error())

	_, _ = m.Update(reviewFailedMsg{run: currentRun, err: errors.New("failed to read main.go")})
	assert.False(t, m.reviewing)
	assert.Contains(t, historyText(m), "failed to read main.go")
}

func TestModel_LibraryErrorKeepsReviewRunning(t *testing.T) {
	m := newTestModel()
	beginReview(m)

	_, _ = m.Update(errorMsg{err: errors.New("history unavailable")})
	assert.True(t, m.reviewing)
	assert.Contains(t, historyText(m), "history unavailable")
}

func TestModel_StreamClosedWithoutTerminalEvent(t *testing.T) {
	m := newTestModel()
	beginReview(m)

	_, _ = m.Update(reviewClosedMsg{run: m.run})
	assert.False(t, m.reviewing)
	assert.Contains(t, historyText(m), "Review stopped")
}

func TestModel_ProcessCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		check func(t *testing.T, m *model)
	}{
		{name: "help", input: "/help", want: "AVAILABLE COMMANDS"},
		{name: "unknown", input: "/frobnicate", want: "UNKNOWN COMMAND"},
		{name: "review usage", input: "/review", want: "USAGE: /review"},
		{name: "review bad strictness", input: "/review main.go brutal", want: "strictness must be one of"},
		{name: "cancel idle", input: "/cancel", want: "No review is running"},
		{name: "show bad id", input: "/show abc", want: "Invalid review id"},
		{name: "explain without review", input: "/explain", want: "Nothing to explain"},
		{
			name: "strictness", input: "/strictness STRICT", want: "Strictness set to strict",
			check: func(t *testing.T, m *model) { assert.Equal(t, core.StrictnessStrict, m.strictness) },
		},
		{
			name: "language", input: "/lang Python", want: "Language set to python",
			check: func(t *testing.T, m *model) { assert.Equal(t, "python", m.language) },
		},
		{name: "unsupported language", input: "/lang klingon", want: "Unsupported language"},
		{
			name: "auto language", input: "/lang auto", want: "detected",
			check: func(t *testing.T, m *model) { assert.Empty(t, m.language) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel()
			cmd := m.processCommand(tt.input)
			assert.Nil(t, cmd)
			assert.Contains(t, historyText(m), tt.want)
			if tt.check != nil {
				tt.check(t, m)
			}
		})
	}
}

func TestModel_CommandsWaitForServices(t *testing.T) {
	m := initialModel(ThemeCyan, "")
	assert.Nil(t, m.processCommand("/review main.go"))
	assert.Contains(t, historyText(m), "not ready")
}

func TestModel_RejectsSecondReview(t *testing.T) {
	m := newTestModel()
	beginReview(m)
	assert.Nil(t, m.processCommand("/review other.go"))
	assert.Contains(t, historyText(m), "already running")
}

func TestModel_ShowRecordSetsExplainContext(t *testing.T) {
	m := newTestModel()
	feedback := "- use constants"
	corrected := "const x = 1"
	_, _ = m.Update(recordLoadedMsg{record: &core.ReviewRecord{
		ID: 3, Title: "Go Review Snippet", Code: "x := 1", Language: "go",
		Strictness: core.StrictnessLenient, Feedback: &feedback, CorrectedCode: &corrected,
	}})

	require.NotNil(t, m.last)
	assert.Equal(t, "x := 1", m.last.code)
	assert.Equal(t, feedback, m.last.feedback)
	out := historyText(m)
	assert.Contains(t, out, "#3 Go Review Snippet")
	assert.Contains(t, out, "const x = 1")
}
