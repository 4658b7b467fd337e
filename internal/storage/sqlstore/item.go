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

type ItemStore struct {
	db *sqlx.DB
}

func NewItemStore(db *sqlx.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemColumns = `id, source_id, title, body, author, permalink, created_at,
	status, processed_at, retry_count, error_message`

func (s *ItemStore) Exists(ctx context.Context, id string) (bool, error) {
	exec := GetExecutor(ctx, s.db)

	var n int
	if err := sqlx.GetContext(ctx, exec, &n, exec.Rebind(`SELECT COUNT(*) FROM items WHERE id = ?`), id); err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertPending stores item as pending. It reports false, without error, when
// the id is already taken.
func (s *ItemStore) InsertPending(ctx context.Context, item *domain.Item) (bool, error) {
	exec := GetExecutor(ctx, s.db)
	item.Status = domain.ItemStatusPending

	query := exec.Rebind(`
		INSERT INTO items (id, source_id, title, body, author, permalink, created_at, status, retry_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT (id) DO NOTHING`)

	res, err := exec.ExecContext(ctx, query,
		item.ID,
		item.SourceID,
		item.Title,
		item.Body,
		item.Author,
		item.Permalink,
		item.CreatedAt.UTC(),
		item.Status,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *ItemStore) MarkSuccess(ctx context.Context, id string, at time.Time) error {
	exec := GetExecutor(ctx, s.db)

	query := exec.Rebind(`
		UPDATE items
		SET status = ?, processed_at = ?, error_message = NULL
		WHERE id = ?`)

	res, err := exec.ExecContext(ctx, query, domain.ItemStatusSuccess, at.UTC(), id)
	if err != nil {
		return err
	}
	return expectRow(res, fmt.Sprintf("item %s", id))
}

// MarkFailed records msg and bumps the retry count.
func (s *ItemStore) MarkFailed(ctx context.Context, id, msg string, at time.Time) error {
	exec := GetExecutor(ctx, s.db)

	query := exec.Rebind(`
		UPDATE items
		SET status = ?, processed_at = ?, error_message = ?, retry_count = retry_count + 1
		WHERE id = ?`)

	res, err := exec.ExecContext(ctx, query, domain.ItemStatusFailed, at.UTC(), msg, id)
	if err != nil {
		return err
	}
	return expectRow(res, fmt.Sprintf("item %s", id))
}

func (s *ItemStore) Get(ctx context.Context, id string) (*domain.Item, error) {
	exec := GetExecutor(ctx, s.db)

	var item domain.Item
	err := sqlx.GetContext(ctx, exec, &item, exec.Rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns the most recent items first, optionally filtered by status.
func (s *ItemStore) List(ctx context.Context, status domain.ItemStatus, limit int) ([]domain.Item, error) {
	exec := GetExecutor(ctx, s.db)
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	var items []domain.Item
	if err := sqlx.SelectContext(ctx, exec, &items, exec.Rebind(query), args...); err != nil {
		return nil, err
	}
	return items, nil
}

// CountByStatus returns the number of items per status.
func (s *ItemStore) CountByStatus(ctx context.Context) (map[domain.ItemStatus]int, error) {
	exec := GetExecutor(ctx, s.db)

	rows, err := exec.QueryContext(ctx, `SELECT status, COUNT(*) FROM items GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ItemStatus]int)
	for rows.Next() {
		var status domain.ItemStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
