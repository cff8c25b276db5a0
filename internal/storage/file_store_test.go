package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/code-pilot/internal/core"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func newRecord(id int64, lang string) *core.ReviewRecord {
	return &core.ReviewRecord{
		ID:            id,
		Timestamp:     id,
		Title:         core.DefaultTitle(lang),
		Code:          "code " + lang,
		Language:      lang,
		Strictness:    core.StrictnessModerate,
		Feedback:      strPtr("feedback"),
		CorrectedCode: strPtr("fixed"),
	}
}

func newTestFileStore(t *testing.T) (HistoryStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "reviews.json")
	store, err := NewFileStore(path, testLogger())
	require.NoError(t, err)
	return store, path
}

func TestFileStore_AddAndList(t *testing.T) {
	ctx := context.Background()
	store, path := newTestFileStore(t)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "a missing file is an empty history")

	require.NoError(t, store.Add(ctx, newRecord(100, "go")))
	require.NoError(t, store.Add(ctx, newRecord(300, "python")))
	require.NoError(t, store.Add(ctx, newRecord(200, "rust")))

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{300, 200, 100}, []int64{list[0].ID, list[1].ID, list[2].ID})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"correctedCode": "fixed"`)
}

func TestFileStore_NullableFields(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)

	rec := newRecord(1, "sql")
	rec.Feedback = nil
	rec.CorrectedCode = nil
	require.NoError(t, store.Add(ctx, rec))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got.Feedback)
	assert.Nil(t, got.CorrectedCode)
}

func TestFileStore_DuplicateIDGetsNext(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)

	require.NoError(t, store.Add(ctx, newRecord(5, "go")))
	dup := newRecord(5, "go")
	require.NoError(t, store.Add(ctx, dup))
	assert.Equal(t, int64(6), dup.ID)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFileStore_RenameAndDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)
	require.NoError(t, store.Add(ctx, newRecord(1, "go")))

	require.NoError(t, store.Rename(ctx, 1, "  Worker pool fix  "))
	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Worker pool fix", got.Title)

	err = store.Rename(ctx, 1, "   ")
	assert.ErrorIs(t, err, core.ErrEmptyTitle)
	assert.True(t, core.IsValidation(err))

	assert.ErrorIs(t, store.Rename(ctx, 2, "x"), core.ErrNotFound)

	require.NoError(t, store.Delete(ctx, 1))
	_, err = store.Get(ctx, 1)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, 1), core.ErrNotFound)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store, path := newTestFileStore(t)
	require.NoError(t, store.Add(ctx, newRecord(7, "kotlin")))

	reopened, err := NewFileStore(path, testLogger())
	require.NoError(t, err)
	got, err := reopened.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Kotlin Review Snippet", got.Title)
}

func TestFileStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Add(ctx, newRecord(int64(i+1), "go")))
		}()
	}
	wg.Wait()

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestFileStore_CorruptFile(t *testing.T) {
	store, path := newTestFileStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := store.List(context.Background())
	assert.Error(t, err)
}
