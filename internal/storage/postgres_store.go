package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sevigo/code-pilot/internal/core"
)

const uniqueViolation = "23505"

type postgresStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresStore creates a HistoryStore on the reviews table.
func NewPostgresStore(db *sqlx.DB, logger *slog.Logger) HistoryStore {
	return &postgresStore{db: db, logger: logger}
}

const insertReview = `
	INSERT INTO reviews (id, "timestamp", title, code, language, strictness, feedback, corrected_code)
	VALUES (:id, :timestamp, :title, :code, :language, :strictness, :feedback, :corrected_code)`

func (s *postgresStore) Add(ctx context.Context, rec *core.ReviewRecord) error {
	_, err := s.db.NamedExecContext(ctx, insertReview, rec)
	if isUniqueViolation(err) {
		var next int64
		if err := s.db.GetContext(ctx, &next, `SELECT COALESCE(MAX(id), 0) + 1 FROM reviews`); err != nil {
			return fmt.Errorf("failed to allocate review id: %w", err)
		}
		s.logger.Debug("review id already taken, assigning next", "id", rec.ID, "next", next)
		rec.ID = next
		_, err = s.db.NamedExecContext(ctx, insertReview, rec)
	}
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	s.logger.Info("review saved to history", "id", rec.ID, "title", rec.Title)
	return nil
}

func (s *postgresStore) List(ctx context.Context) ([]core.ReviewRecord, error) {
	query := `
		SELECT id, "timestamp", title, code, language, strictness, feedback, corrected_code
		FROM reviews
		ORDER BY "timestamp" DESC, id DESC`

	var records []core.ReviewRecord
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return records, nil
}

func (s *postgresStore) Get(ctx context.Context, id int64) (*core.ReviewRecord, error) {
	query := `
		SELECT id, "timestamp", title, code, language, strictness, feedback, corrected_code
		FROM reviews
		WHERE id = $1`

	var rec core.ReviewRecord
	if err := s.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", core.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get review %d: %w", id, err)
	}
	return &rec, nil
}

func (s *postgresStore) Rename(ctx context.Context, id int64, title string) error {
	title, err := normalizeTitle(title)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE reviews SET title = $1 WHERE id = $2`, title, id)
	if err != nil {
		return fmt.Errorf("failed to rename review %d: %w", id, err)
	}
	return expectOneRow(res, id)
}

func (s *postgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review %d: %w", id, err)
	}
	return expectOneRow(res, id)
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", core.ErrNotFound, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
