// Package library manages the saved review history: listing, renaming,
// deleting and natural-language search.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/code-pilot/internal/core"
	"github.com/sevigo/code-pilot/internal/storage"
)

const reindexConcurrency = 4

//go:generate mockgen -destination=../../mocks/mock_ranker.go -package=mocks . Ranker

// Ranker orders reviews by relevance to a query.
type Ranker interface {
	RankReviews(ctx context.Context, query string, records []core.ReviewRecord) ([]int64, error)
}

// Service is the review library. When index is set, saved reviews are also
// embedded and searches use similarity first, falling back to the ranker.
type Service struct {
	store  storage.HistoryStore
	ranker Ranker
	index  storage.ReviewIndex
	logger *slog.Logger
}

func NewService(store storage.HistoryStore, ranker Ranker, index storage.ReviewIndex, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		ranker: ranker,
		index:  index,
		logger: logger,
	}
}

// Add saves rec and indexes it. Indexing failures are logged only; the
// review stays in the history either way.
func (s *Service) Add(ctx context.Context, rec *core.ReviewRecord) error {
	if err := s.store.Add(ctx, rec); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Index(ctx, *rec); err != nil {
			s.logger.Warn("failed to index saved review", "id", rec.ID, "error", err)
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]core.ReviewRecord, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*core.ReviewRecord, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Rename(ctx context.Context, id int64, title string) error {
	if err := s.store.Rename(ctx, id, title); err != nil {
		return err
	}
	s.logger.Info("review renamed", "id", id)
	return nil
}

// Delete removes a review. Stale index entries are filtered out at search time.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("review deleted", "id", id)
	return nil
}

// Search returns the reviews relevant to query, most relevant first. An empty
// library yields no results without contacting any backend.
func (s *Service) Search(ctx context.Context, query string) ([]core.ReviewRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &core.ValidationError{Reason: core.ErrEmptyQuery}
	}

	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	ids, err := s.rank(ctx, query, records)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]core.ReviewRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	results := make([]core.ReviewRecord, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			results = append(results, r)
		}
	}

	s.logger.Info("library search completed", "candidates", len(records), "results", len(results))
	return results, nil
}

func (s *Service) rank(ctx context.Context, query string, records []core.ReviewRecord) ([]int64, error) {
	if s.index != nil {
		ids, err := s.index.Search(ctx, query, len(records))
		if err == nil {
			return ids, nil
		}
		s.logger.Warn("vector search failed, falling back to model ranking", "error", err)
	}
	if s.ranker == nil {
		return nil, fmt.Errorf("no search backend configured")
	}
	return s.ranker.RankReviews(ctx, query, records)
}

// Reindex rebuilds the similarity index from the stored history.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, fmt.Errorf("vector search is not enabled")
	}

	records, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load history: %w", err)
	}

	if err := s.index.Reset(ctx); err != nil {
		s.logger.Warn("failed to reset review index, indexing on top", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reindexConcurrency)
	for _, rec := range records {
		g.Go(func() error {
			return s.index.Index(gctx, rec)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("reindex failed: %w", err)
	}

	s.logger.Info("review index rebuilt", "reviews", len(records))
	return len(records), nil
}
