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

type WebhookStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewWebhookStore(db *sqlx.DB) *WebhookStore {
	return &WebhookStore{db: db, now: time.Now}
}

const webhookColumns = `id, type, webhook_url, enabled, created_at, updated_at`

// FirstEnabled returns the enabled target with the lowest id, or nil when no
// target is enabled.
func (s *WebhookStore) FirstEnabled(ctx context.Context) (*domain.WebhookTarget, error) {
	exec := GetExecutor(ctx, s.db)

	var w domain.WebhookTarget
	query := exec.Rebind(`SELECT ` + webhookColumns + ` FROM webhook_targets WHERE enabled = ? ORDER BY id LIMIT 1`)

	err := sqlx.GetContext(ctx, exec, &w, query, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Upsert sets the URL for the given type, creating an enabled target if none
// exists. An existing target keeps its enabled flag.
func (s *WebhookStore) Upsert(ctx context.Context, t domain.TargetType, url string) (*domain.WebhookTarget, error) {
	exec := GetExecutor(ctx, s.db)
	now := s.now().UTC()

	query := exec.Rebind(`
		INSERT INTO webhook_targets (type, webhook_url, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (type) DO UPDATE SET
			webhook_url = EXCLUDED.webhook_url,
			updated_at = EXCLUDED.updated_at`)

	if _, err := exec.ExecContext(ctx, query, t, url, true, now, now); err != nil {
		return nil, err
	}
	return s.Get(ctx, t)
}

func (s *WebhookStore) Get(ctx context.Context, t domain.TargetType) (*domain.WebhookTarget, error) {
	exec := GetExecutor(ctx, s.db)

	var w domain.WebhookTarget
	err := sqlx.GetContext(ctx, exec, &w, exec.Rebind(`SELECT `+webhookColumns+` FROM webhook_targets WHERE type = ?`), t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("webhook %s: %w", t, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *WebhookStore) List(ctx context.Context) ([]domain.WebhookTarget, error) {
	exec := GetExecutor(ctx, s.db)

	var targets []domain.WebhookTarget
	if err := sqlx.SelectContext(ctx, exec, &targets, `SELECT `+webhookColumns+` FROM webhook_targets ORDER BY id`); err != nil {
		return nil, err
	}
	return targets, nil
}

func (s *WebhookStore) SetEnabled(ctx context.Context, t domain.TargetType, enabled bool) error {
	exec := GetExecutor(ctx, s.db)

	query := exec.Rebind(`UPDATE webhook_targets SET enabled = ?, updated_at = ? WHERE type = ?`)
	res, err := exec.ExecContext(ctx, query, enabled, s.now().UTC(), t)
	if err != nil {
		return err
	}
	return expectRow(res, fmt.Sprintf("webhook %s", t))
}
