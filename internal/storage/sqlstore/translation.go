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

type TranslationStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewTranslationStore(db *sqlx.DB) *TranslationStore {
	return &TranslationStore{db: db, now: time.Now}
}

// Save stores t unless a translation for the same item and target language
// exists; the first one wins.
func (s *TranslationStore) Save(ctx context.Context, t *domain.Translation) error {
	exec := GetExecutor(ctx, s.db)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}

	query := exec.Rebind(`
		INSERT INTO translations (item_id, source_lang, target_lang, translated_title, translated_body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (item_id, target_lang) DO NOTHING`)

	_, err := exec.ExecContext(ctx, query,
		t.ItemID, t.SourceLang, t.TargetLang, t.TranslatedTitle, t.TranslatedBody, t.CreatedAt.UTC(),
	)
	return err
}

func (s *TranslationStore) Get(ctx context.Context, itemID, targetLang string) (*domain.Translation, error) {
	exec := GetExecutor(ctx, s.db)

	var t domain.Translation
	query := exec.Rebind(`
		SELECT id, item_id, source_lang, target_lang, translated_title, translated_body, created_at
		FROM translations
		WHERE item_id = ? AND target_lang = ?`)

	err := sqlx.GetContext(ctx, exec, &t, query, itemID, targetLang)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("translation %s/%s: %w", itemID, targetLang, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
