package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sevigo/code-pilot/internal/app"
	"github.com/sevigo/code-pilot/internal/core"
	"github.com/sevigo/code-pilot/internal/llm"
	"github.com/sevigo/code-pilot/internal/wire"
)

const typeTickInterval = 15 * time.Millisecond

func initializeServicesCmd(configPath string) tea.Cmd {
	return func() tea.Msg {
		services, cleanup, err := wire.InitializeServices(context.Background(), wire.ConfigPath(configPath))
		if err != nil {
			return appInitializedMsg{err: err}
		}
		return appInitializedMsg{services: services, cleanup: cleanup}
	}
}

// startReviewCmd reads path, resolves its language and starts the review in
// the background. Events are delivered through the returned channel, which is
// closed when the stream ends.
func startReviewCmd(ctx context.Context, run int, services *app.Services, path, language string, strictness core.Strictness) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return reviewFailedMsg{run: run, err: fmt.Errorf("failed to read %s: %w", path, err)}
		}
		code := string(data)

		if language == "" {
			language, _ = llm.LanguageFromFilename(filepath.Base(path))
		}
		if language == "" {
			language, err = services.Assistant.DetectLanguage(ctx, code)
			if err != nil {
				return reviewFailedMsg{run: run, err: err}
			}
			if language == "" {
				return reviewFailedMsg{run: run, err: fmt.Errorf("could not detect the language of %s; use /lang first", path)}
			}
		}

		req := core.ReviewRequest{Code: code, Language: language, Strictness: strictness}
		events := make(chan core.Event)
		go func() {
			defer close(events)
			for ev := range services.Reviewer.Review(ctx, req) {
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}()
		return reviewStartedMsg{run: run, events: events, source: path, lang: language}
	}
}

// waitForEvent blocks until the next review event arrives.
func waitForEvent(run int, events <-chan core.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return reviewClosedMsg{run: run}
		}
		return reviewEventMsg{run: run, event: ev, events: events}
	}
}

func formatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

func typeTick() tea.Cmd {
	return tea.Tick(typeTickInterval, func(time.Time) tea.Msg { return typeTickMsg{} })
}

func listRecordsCmd(services *app.Services) tea.Cmd {
	return func() tea.Msg {
		records, err := services.Library.List(context.Background())
		return recordsLoadedMsg{title: "REVIEW LIBRARY", records: records, err: err}
	}
}

func searchRecordsCmd(services *app.Services, query string) tea.Cmd {
	return func() tea.Msg {
		records, err := services.Library.Search(context.Background(), query)
		return recordsLoadedMsg{title: fmt.Sprintf("RESULTS FOR %q", query), records: records, err: err}
	}
}

func showRecordCmd(services *app.Services, id int64) tea.Cmd {
	return func() tea.Msg {
		rec, err := services.Library.Get(context.Background(), id)
		return recordLoadedMsg{record: rec, err: err}
	}
}

func renameRecordCmd(services *app.Services, id int64, title string) tea.Cmd {
	return func() tea.Msg {
		if err := services.Library.Rename(context.Background(), id, title); err != nil {
			return errorMsg{err}
		}
		return infoMsg{text: fmt.Sprintf("✓ Review #%d renamed", id)}
	}
}

func deleteRecordCmd(services *app.Services, id int64) tea.Cmd {
	return func() tea.Msg {
		if err := services.Library.Delete(context.Background(), id); err != nil {
			return errorMsg{err}
		}
		return infoMsg{text: fmt.Sprintf("✓ Review #%d deleted", id)}
	}
}

func explainCmd(services *app.Services, code, feedback, language string) tea.Cmd {
	return func() tea.Msg {
		explanation, err := services.Assistant.Explain(context.Background(), code, feedback, language)
		if err != nil {
			return errorMsg{err}
		}
		return explanationMsg{content: explanation}
	}
}
