package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"forum_relay/internal/domain"
)

type SourceStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSourceStore(db *sqlx.DB) *SourceStore {
	return &SourceStore{db: db, now: time.Now}
}

const sourceColumns = `id, name, kind, url, enabled, last_checked_at, created_at`

// Create inserts src and sets its ID. A duplicate name fails with
// domain.ErrValidation.
func (s *SourceStore) Create(ctx context.Context, src *domain.Source) error {
	exec := GetExecutor(ctx, s.db)

	if existing, err := s.GetByName(ctx, src.Name); err == nil {
		return fmt.Errorf("%w: source %q already exists (id %d)", domain.ErrValidation, src.Name, existing.ID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	src.CreatedAt = s.now().UTC()
	query := exec.Rebind(`
		INSERT INTO sources (name, kind, url, enabled, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)

	return exec.QueryRowxContext(ctx, query,
		src.Name, src.Kind, src.URL, src.Enabled, src.CreatedAt,
	).Scan(&src.ID)
}

func (s *SourceStore) GetByName(ctx context.Context, name string) (*domain.Source, error) {
	exec := GetExecutor(ctx, s.db)

	var src domain.Source
	query := exec.Rebind(`SELECT ` + sourceColumns + ` FROM sources WHERE name = ?`)

	err := sqlx.GetContext(ctx, exec, &src, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("source %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}

func (s *SourceStore) List(ctx context.Context) ([]domain.Source, error) {
	exec := GetExecutor(ctx, s.db)

	var sources []domain.Source
	query := `SELECT ` + sourceColumns + ` FROM sources ORDER BY id`
	if err := sqlx.SelectContext(ctx, exec, &sources, query); err != nil {
		return nil, err
	}
	return sources, nil
}

func (s *SourceStore) ListEnabled(ctx context.Context) ([]domain.Source, error) {
	exec := GetExecutor(ctx, s.db)

	var sources []domain.Source
	query := exec.Rebind(`SELECT ` + sourceColumns + ` FROM sources WHERE enabled = ? ORDER BY id`)
	if err := sqlx.SelectContext(ctx, exec, &sources, query, true); err != nil {
		return nil, err
	}
	return sources, nil
}

func (s *SourceStore) SetEnabled(ctx context.Context, name string, enabled bool) error {
	exec := GetExecutor(ctx, s.db)

	res, err := exec.ExecContext(ctx, exec.Rebind(`UPDATE sources SET enabled = ? WHERE name = ?`), enabled, name)
	if err != nil {
		return err
	}
	return expectRow(res, fmt.Sprintf("source %q", name))
}

// AdvanceCheckpoint moves last_checked_at forward to at. It never moves the
// checkpoint backwards; an older at leaves the row untouched.
func (s *SourceStore) AdvanceCheckpoint(ctx context.Context, sourceID int64, at time.Time) error {
	exec := GetExecutor(ctx, s.db)
	at = at.UTC()

	query := exec.Rebind(`
		UPDATE sources
		SET last_checked_at = ?
		WHERE id = ? AND (last_checked_at IS NULL OR last_checked_at <= ?)`)

	_, err := exec.ExecContext(ctx, query, at, sourceID, at)
	return err
}
