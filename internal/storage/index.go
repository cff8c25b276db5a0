package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sevigo/goframe/embeddings"
	"github.com/sevigo/goframe/schema"
	"github.com/sevigo/goframe/vectorstores"
	"github.com/sevigo/goframe/vectorstores/qdrant"

	"github.com/sevigo/code-pilot/internal/core"
)

const reviewIDKey = "review_id"

//go:generate mockgen -destination=../../mocks/mock_review_index.go -package=mocks . ReviewIndex

// ReviewIndex is a similarity index over saved reviews.
type ReviewIndex interface {
	// Index embeds rec so that later searches can find it.
	Index(ctx context.Context, rec core.ReviewRecord) error
	// Search returns the ids of reviews similar enough to query, most similar
	// first. No hit above the score threshold yields an empty result.
	Search(ctx context.Context, query string, limit int) ([]int64, error)
	// Reset drops every indexed review.
	Reset(ctx context.Context) error
}

type qdrantIndex struct {
	host       string
	collection string
	minScore   float32
	embedder   embeddings.Embedder
	logger     *slog.Logger
}

// NewQdrantIndex creates a ReviewIndex stored in a Qdrant collection. Hits
// scoring below minScore are not returned; zero disables the cutoff.
func NewQdrantIndex(host, collection string, minScore float32, embedder embeddings.Embedder, logger *slog.Logger) (ReviewIndex, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, fmt.Errorf("collection name cannot be empty")
	}
	return &qdrantIndex{
		host:       host,
		collection: collection,
		minScore:   minScore,
		embedder:   embedder,
		logger:     logger,
	}, nil
}

func (q *qdrantIndex) store() (vectorstores.VectorStore, error) {
	return qdrant.New(
		qdrant.WithHost(q.host),
		qdrant.WithEmbedder(q.embedder),
		qdrant.WithCollectionName(q.collection),
		qdrant.WithLogger(q.logger),
	)
}

// ReviewDocument renders rec as the text that gets embedded.
func ReviewDocument(rec core.ReviewRecord) schema.Document {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nLanguage: %s\nStrictness: %s\n\n", rec.Title, rec.Language, rec.Strictness)
	if rec.Feedback != nil {
		fmt.Fprintf(&b, "Feedback:\n%s\n\n", *rec.Feedback)
	}
	fmt.Fprintf(&b, "Code:\n%s\n", rec.Code)

	return schema.NewDocument(b.String(), map[string]any{
		reviewIDKey: strconv.FormatInt(rec.ID, 10),
		"language":  rec.Language,
		"title":     rec.Title,
	})
}

func (q *qdrantIndex) Index(ctx context.Context, rec core.ReviewRecord) error {
	store, err := q.store()
	if err != nil {
		return fmt.Errorf("failed to get qdrant store for collection %s: %w", q.collection, err)
	}
	if _, err := store.AddDocuments(ctx, []schema.Document{ReviewDocument(rec)}); err != nil {
		return fmt.Errorf("failed to index review %d: %w", rec.ID, err)
	}
	q.logger.Debug("review indexed", "id", rec.ID, "collection", q.collection)
	return nil
}

func (q *qdrantIndex) Search(ctx context.Context, query string, limit int) ([]int64, error) {
	store, err := q.store()
	if err != nil {
		return nil, fmt.Errorf("failed to get qdrant store for collection %s: %w", q.collection, err)
	}
	docs, err := store.SimilaritySearch(ctx, query, limit, searchOptions(q.minScore)...)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	return reviewIDs(docs), nil
}

func searchOptions(minScore float32) []vectorstores.Option {
	var opts []vectorstores.Option
	if minScore > 0 {
		opts = append(opts, vectorstores.WithScoreThreshold(minScore))
	}
	return opts
}

func (q *qdrantIndex) Reset(ctx context.Context) error {
	store, err := q.store()
	if err != nil {
		return fmt.Errorf("failed to get qdrant store for collection %s: %w", q.collection, err)
	}
	return store.DeleteCollection(ctx, q.collection)
}

// reviewIDs extracts review ids from search hits, keeping order and dropping
// duplicates and documents without a readable id.
func reviewIDs(docs []schema.Document) []int64 {
	ids := make([]int64, 0, len(docs))
	seen := make(map[int64]struct{}, len(docs))
	for _, doc := range docs {
		id, ok := metadataID(doc.Metadata[reviewIDKey])
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func metadataID(v any) (int64, bool) {
	switch id := v.(type) {
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		return n, err == nil
	case int64:
		return id, true
	case int:
		return int64(id), true
	case float64:
		return int64(id), true
	default:
		return 0, false
	}
}
