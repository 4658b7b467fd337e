package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"forum_relay/internal/domain"
)

type ConfigStore interface {
	Get(ctx context.Context) (*domain.UserConfig, error)
}

type SourceStore interface {
	ListEnabled(ctx context.Context) ([]domain.Source, error)
	AdvanceCheckpoint(ctx context.Context, sourceID int64, at time.Time) error
}

type ItemStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	InsertPending(ctx context.Context, item *domain.Item) (bool, error)
	MarkSuccess(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id, msg string, at time.Time) error
}

type TranslationStore interface {
	Save(ctx context.Context, t *domain.Translation) error
}

type WebhookStore interface {
	FirstEnabled(ctx context.Context) (*domain.WebhookTarget, error)
}

type Fetcher interface {
	FetchNew(ctx context.Context, src domain.Source, limit int, since *time.Time) ([]domain.FetchedItem, error)
}

type Translator interface {
	Name() string
	TranslateItem(ctx context.Context, title string, body *string, targetLang string) (*domain.ItemTranslation, error)
}

type Sender interface {
	Deliver(ctx context.Context, target domain.WebhookTarget, n domain.Notification) domain.DeliveryResult
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, event *domain.ItemEvent) error
	Close() error
}
