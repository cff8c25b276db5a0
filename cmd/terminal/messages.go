package main

import (
	"github.com/sevigo/code-pilot/internal/app"
	"github.com/sevigo/code-pilot/internal/core"
)

// Indicates that the core application services have been initialized.
type appInitializedMsg struct {
	services *app.Services
	cleanup  func()
	err      error
}

// reviewStartedMsg carries the event channel of a newly started review.
type reviewStartedMsg struct {
	run    int
	events <-chan core.Event
	source string
	lang   string
}

// reviewEventMsg is one event from the running review.
type reviewEventMsg struct {
	run    int
	event  core.Event
	events <-chan core.Event
}

// reviewFailedMsg reports that a review could not be started.
type reviewFailedMsg struct {
	run int
	err error
}

// reviewClosedMsg means the review stream ended, with or without a terminal event.
type reviewClosedMsg struct{ run int }

// typeTickMsg advances the typewriter.
type typeTickMsg struct{}

type recordsLoadedMsg struct {
	title   string
	records []core.ReviewRecord
	err     error
}

type recordLoadedMsg struct {
	record *core.ReviewRecord
	err    error
}

// infoMsg reports a finished action that has nothing to show but a line of text.
type infoMsg struct{ text string }

type explanationMsg struct{ content string }

// A generic error message for reporting failures from commands.
type errorMsg struct{ err error }

func (e errorMsg) Error() string {
	return e.err.Error()
}
