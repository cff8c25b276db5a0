// Package storage persists the review history and indexes it for search.
package storage

import (
	"context"
	"strings"

	"github.com/sevigo/code-pilot/internal/core"
)

//go:generate mockgen -destination=../../mocks/mock_history_store.go -package=mocks . HistoryStore

// HistoryStore is the single-user review library.
type HistoryStore interface {
	// Add persists rec. If rec.ID is already taken the store assigns the next
	// free ID and updates rec.
	Add(ctx context.Context, rec *core.ReviewRecord) error
	// List returns every review, newest first.
	List(ctx context.Context) ([]core.ReviewRecord, error)
	// Get returns the review with id or core.ErrNotFound.
	Get(ctx context.Context, id int64) (*core.ReviewRecord, error)
	Rename(ctx context.Context, id int64, title string) error
	Delete(ctx context.Context, id int64) error
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &core.ValidationError{Reason: core.ErrEmptyTitle}
	}
	return title, nil
}
