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

const configID = 1

type ConfigStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewConfigStore(db *sqlx.DB) *ConfigStore {
	return &ConfigStore{db: db, now: time.Now}
}

// Get returns the singleton config, or domain.ErrNotFound before Init.
func (s *ConfigStore) Get(ctx context.Context) (*domain.UserConfig, error) {
	exec := GetExecutor(ctx, s.db)

	var cfg domain.UserConfig
	query := exec.Rebind(`
		SELECT id, language, translator_service, poll_interval_minutes, created_at, updated_at
		FROM user_config
		WHERE id = ?`)

	err := sqlx.GetContext(ctx, exec, &cfg, query, configID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user config: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init creates the config row with defaults if it does not exist yet and
// returns the stored row.
func (s *ConfigStore) Init(ctx context.Context) (*domain.UserConfig, error) {
	exec := GetExecutor(ctx, s.db)
	def := domain.DefaultUserConfig()
	now := s.now().UTC()

	query := exec.Rebind(`
		INSERT INTO user_config (id, language, translator_service, poll_interval_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)

	if _, err := exec.ExecContext(ctx, query,
		configID, def.Language, def.TranslatorService, def.PollIntervalMinutes, now, now,
	); err != nil {
		return nil, err
	}
	return s.Get(ctx)
}

func (s *ConfigStore) Update(ctx context.Context, cfg *domain.UserConfig) error {
	exec := GetExecutor(ctx, s.db)
	cfg.UpdatedAt = s.now().UTC()

	query := exec.Rebind(`
		UPDATE user_config
		SET language = ?, translator_service = ?, poll_interval_minutes = ?, updated_at = ?
		WHERE id = ?`)

	res, err := exec.ExecContext(ctx, query,
		cfg.Language, cfg.TranslatorService, cfg.PollIntervalMinutes, cfg.UpdatedAt, configID,
	)
	if err != nil {
		return err
	}
	return expectRow(res, "user config")
}

// expectRow maps a zero-row update to domain.ErrNotFound.
func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
