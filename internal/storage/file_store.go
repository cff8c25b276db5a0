package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/sevigo/code-pilot/internal/core"
)

// fileStore keeps the whole history in one JSON array, newest first.
// Writes go to a temporary file that is renamed over the original.
type fileStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStore creates a HistoryStore backed by the JSON file at path. The
// parent directory is created if needed; the file itself appears on first write.
func NewFileStore(path string, logger *slog.Logger) (HistoryStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	return &fileStore{path: path, logger: logger}, nil
}

func (s *fileStore) load() ([]core.ReviewRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading history file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []core.ReviewRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding history file %s: %w", s.path, err)
	}
	return records, nil
}

func (s *fileStore) save(records []core.ReviewRecord) error {
	if records == nil {
		records = []core.ReviewRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*.json")
	if err != nil {
		return fmt.Errorf("creating temporary history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

func (s *fileStore) Add(_ context.Context, rec *core.ReviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	var maxID int64
	taken := false
	for _, r := range records {
		maxID = max(maxID, r.ID)
		if r.ID == rec.ID {
			taken = true
		}
	}
	if taken {
		s.logger.Debug("review id already taken, assigning next", "id", rec.ID, "next", maxID+1)
		rec.ID = maxID + 1
	}

	records = slices.Insert(records, 0, *rec)
	sortNewestFirst(records)
	if err := s.save(records); err != nil {
		return err
	}
	s.logger.Info("review saved to history", "id", rec.ID, "title", rec.Title)
	return nil
}

func (s *fileStore) List(_ context.Context) ([]core.ReviewRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	sortNewestFirst(records)
	return records, nil
}

func (s *fileStore) Get(_ context.Context, id int64) (*core.ReviewRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(records, func(r core.ReviewRecord) bool { return r.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %d", core.ErrNotFound, id)
	}
	return &records[i], nil
}

func (s *fileStore) Rename(_ context.Context, id int64, title string) error {
	title, err := normalizeTitle(title)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(records, func(r core.ReviewRecord) bool { return r.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %d", core.ErrNotFound, id)
	}
	records[i].Title = title
	return s.save(records)
}

func (s *fileStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	n := len(records)
	records = slices.DeleteFunc(records, func(r core.ReviewRecord) bool { return r.ID == id })
	if len(records) == n {
		return fmt.Errorf("%w: %d", core.ErrNotFound, id)
	}
	return s.save(records)
}

func sortNewestFirst(records []core.ReviewRecord) {
	slices.SortStableFunc(records, func(a, b core.ReviewRecord) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		default:
			return 0
		}
	})
}
