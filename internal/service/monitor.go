package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"forum_relay/internal/domain"
	"forum_relay/internal/scheduler"
	"forum_relay/internal/source"
)

const (
	DefaultPageSize = 25

	deliveryFailedMessage = "Webhook delivery failed"
)

// TranslatorFactory builds the translation backend registered under name.
type TranslatorFactory func(name string) (Translator, error)

type Config struct {
	PageSize int
	// Translator overrides the backend named in the stored user config.
	Translator   string
	CycleTimeout time.Duration
}

type Dependencies struct {
	Configs       ConfigStore
	Sources       SourceStore
	Items         ItemStore
	Translations  TranslationStore
	Webhooks      WebhookStore
	Fetcher       Fetcher
	Sender        Sender
	TxManager     TransactionManager
	NewTranslator TranslatorFactory
	// Publisher is optional.
	Publisher Publisher
}

// Monitor polls sources, translates unseen items and delivers them to the
// enabled webhook. It processes sources and items sequentially.
type Monitor struct {
	configs       ConfigStore
	sources       SourceStore
	items         ItemStore
	translations  TranslationStore
	webhooks      WebhookStore
	fetcher       Fetcher
	sender        Sender
	txManager     TransactionManager
	newTranslator TranslatorFactory
	publisher     Publisher

	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	translator Translator
}

func NewMonitor(deps Dependencies, cfg Config, logger *slog.Logger) *Monitor {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Monitor{
		configs:       deps.Configs,
		sources:       deps.Sources,
		items:         deps.Items,
		translations:  deps.Translations,
		webhooks:      deps.Webhooks,
		fetcher:       deps.Fetcher,
		sender:        deps.Sender,
		txManager:     deps.TxManager,
		newTranslator: deps.NewTranslator,
		publisher:     deps.Publisher,
		cfg:           cfg,
		logger:        logger.With("component", "monitor"),
		now:           time.Now,
	}
}

// RunOnce runs a single cycle over all enabled sources.
func (m *Monitor) RunOnce(ctx context.Context) *domain.CycleStats {
	m.logger.Info("starting single monitoring cycle")
	stats := m.CheckAllEnabled(ctx)
	m.logger.Info("monitoring cycle complete")
	return stats
}

// RunDaemon runs cycles every interval until ctx is cancelled and returns
// ctx's error.
func (m *Monitor) RunDaemon(ctx context.Context, interval time.Duration) error {
	return scheduler.NewScheduler(m, interval, m.cfg.CycleTimeout, m.logger).Start(ctx)
}

// CheckAllEnabled checks every enabled source once. A failing source is
// counted in Errors and does not stop the others.
func (m *Monitor) CheckAllEnabled(ctx context.Context) *domain.CycleStats {
	start := m.now()
	stats := &domain.CycleStats{}

	sources, err := m.sources.ListEnabled(ctx)
	if err != nil {
		m.logger.Error("failed to list enabled sources", "error", err)
		stats.Errors++
		stats.Duration = m.now().Sub(start)
		return stats
	}

	if len(sources) == 0 {
		m.logger.Warn("no enabled sources found")
		return stats
	}

	m.logger.Info("checking enabled sources", "count", len(sources))

	for _, src := range sources {
		stats.TotalChecked++

		sourceStats, err := m.CheckSource(ctx, src)
		if err != nil {
			stats.Errors++
		} else {
			stats.TotalPosts += sourceStats.Processed
		}
		stats.Sources = append(stats.Sources, *sourceStats)
	}

	stats.Duration = m.now().Sub(start)

	m.logger.Info("check complete",
		"sources_checked", stats.TotalChecked,
		"posts_processed", stats.TotalPosts,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats
}

// CheckSource fetches the items of src newer than its checkpoint, processes
// the unseen ones and then advances the checkpoint. On a source-level error
// the checkpoint is left unchanged and Processed is zero.
func (m *Monitor) CheckSource(ctx context.Context, src domain.Source) (*domain.SourceStats, error) {
	start := m.now()
	logger := m.logger.With("source", src.Name, "kind", src.Kind)
	stats := &domain.SourceStats{Source: src.Name}

	fail := func(err error) (*domain.SourceStats, error) {
		logger.Error("source check failed", "error", err)
		stats.Processed = 0
		stats.Err = err
		stats.Duration = m.now().Sub(start)
		return stats, err
	}

	cfg, err := m.configs.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = fmt.Errorf("%w: user config not initialized", domain.ErrConfig)
		}
		return fail(fmt.Errorf("get config: %w", err))
	}

	// Items created after this instant are picked up next cycle.
	checkpoint := m.now()

	fetched, err := m.fetcher.FetchNew(ctx, src, m.cfg.PageSize, src.LastCheckedAt)
	if err != nil {
		return fail(fmt.Errorf("fetch items: %w", err))
	}
	fetched = source.After(fetched, src.LastCheckedAt)
	stats.Fetched = len(fetched)

	logger.Debug("fetched items", "count", len(fetched), "since", src.LastCheckedAt)

	for _, f := range fetched {
		exists, err := m.items.Exists(ctx, f.ID)
		if err != nil {
			return fail(fmt.Errorf("check item %s: %w", f.ID, err))
		}
		if exists {
			logger.Debug("item already processed, skipping", "item_id", f.ID)
			stats.Skipped++
			continue
		}

		outcome, claimed := m.claimAndProcess(ctx, src, cfg, f)
		if !claimed {
			stats.Skipped++
			continue
		}

		stats.Outcomes = append(stats.Outcomes, outcome)
		if outcome.Succeeded() {
			stats.Processed++
		} else {
			stats.Failed++
		}
	}

	err = m.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		return m.sources.AdvanceCheckpoint(ctx, src.ID, checkpoint)
	})
	if err != nil {
		return fail(fmt.Errorf("advance checkpoint: %w", err))
	}

	stats.Duration = m.now().Sub(start)

	logger.Info("source checked",
		"fetched", stats.Fetched,
		"skipped", stats.Skipped,
		"processed", stats.Processed,
		"failed", stats.Failed,
		"duration", stats.Duration,
	)

	return stats, nil
}

// claimAndProcess inserts f as pending and processes it. It reports false if
// the id was claimed in the meantime.
func (m *Monitor) claimAndProcess(ctx context.Context, src domain.Source, cfg *domain.UserConfig, f domain.FetchedItem) (domain.ItemOutcome, bool) {
	item := domain.NewItem(src.ID, f)

	inserted, err := m.items.InsertPending(ctx, item)
	if err != nil {
		m.logger.Error("failed to store item", "item_id", item.ID, "error", err)
		return domain.ItemOutcome{ItemID: item.ID, Status: domain.ItemStatusFailed, Err: err}, true
	}
	if !inserted {
		return domain.ItemOutcome{}, false
	}

	return m.processItem(ctx, src, cfg, item), true
}

// processItem translates and delivers a claimed item and records the final
// status. Errors are recorded on the item and never abort the batch.
func (m *Monitor) processItem(ctx context.Context, src domain.Source, cfg *domain.UserConfig, item *domain.Item) domain.ItemOutcome {
	logger := m.logger.With("source", src.Name, "item_id", item.ID)
	outcome := domain.ItemOutcome{ItemID: item.ID}

	t, err := m.getTranslator(cfg)
	if err != nil {
		return m.failItem(ctx, src, item, outcome, fmt.Errorf("create translator: %w", err))
	}

	logger.Debug("translating item", "target_lang", cfg.Language, "translator", t.Name())

	tr, err := t.TranslateItem(ctx, item.Title, item.Body, cfg.Language)
	if err != nil {
		return m.failItem(ctx, src, item, outcome, fmt.Errorf("translate: %w", err))
	}

	translation := &domain.Translation{
		ItemID:          item.ID,
		SourceLang:      tr.SourceLang,
		TargetLang:      cfg.Language,
		TranslatedTitle: tr.Title,
		TranslatedBody:  tr.Body,
	}

	target, err := m.webhooks.FirstEnabled(ctx)
	if err != nil {
		return m.failItem(ctx, src, item, outcome, fmt.Errorf("get webhook: %w", err))
	}

	if target == nil {
		logger.Warn("no enabled webhook found, skipping delivery")
		if err := m.finalize(ctx, item, translation, ""); err != nil {
			return m.failItem(ctx, src, item, outcome, err)
		}
		outcome.Status = domain.ItemStatusSuccess
		m.publish(ctx, src, item, translation)
		return outcome
	}

	notification := domain.Notification{
		SourceName: src.Name,
		SourceKind: src.Kind,
		Title:      tr.Title,
		Permalink:  item.Permalink,
		Author:     item.Author,
	}
	if tr.Body != nil {
		notification.Body = *tr.Body
	}

	logger.Debug("delivering item", "webhook", target.Type)

	result := m.sender.Deliver(ctx, *target, notification)
	outcome.Delivered = result.Delivered
	outcome.Attempts = result.Attempts

	failure := ""
	if !result.Delivered {
		failure = deliveryFailedMessage
	}
	if err := m.finalize(ctx, item, translation, failure); err != nil {
		return m.failItem(ctx, src, item, outcome, err)
	}

	if result.Delivered {
		outcome.Status = domain.ItemStatusSuccess
		logger.Info("item processed successfully", "attempts", result.Attempts)
	} else {
		outcome.Status = domain.ItemStatusFailed
		outcome.Err = fmt.Errorf("%s: %w", deliveryFailedMessage, result.Err)
		logger.Error("item webhook delivery failed", "attempts", result.Attempts, "error", result.Err)
	}

	m.publish(ctx, src, item, translation)
	return outcome
}

// finalize stores the translation and the final item status in one
// transaction. An empty failure marks the item successful.
func (m *Monitor) finalize(ctx context.Context, item *domain.Item, translation *domain.Translation, failure string) error {
	at := m.now()

	err := m.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := m.translations.Save(ctx, translation); err != nil {
			return fmt.Errorf("save translation: %w", err)
		}
		if failure == "" {
			return m.items.MarkSuccess(ctx, item.ID, at)
		}
		return m.items.MarkFailed(ctx, item.ID, failure, at)
	})
	if err != nil {
		return fmt.Errorf("finalize item: %w", err)
	}

	item.ProcessedAt = &at
	if failure == "" {
		item.Status = domain.ItemStatusSuccess
	} else {
		item.Status = domain.ItemStatusFailed
		item.RetryCount++
		item.ErrorMessage = &failure
	}
	return nil
}

func (m *Monitor) failItem(ctx context.Context, src domain.Source, item *domain.Item, outcome domain.ItemOutcome, err error) domain.ItemOutcome {
	m.logger.Error("error processing item", "source", src.Name, "item_id", item.ID, "error", err)

	outcome.Status = domain.ItemStatusFailed
	outcome.Err = err

	at := m.now()
	msg := err.Error()
	if markErr := m.items.MarkFailed(ctx, item.ID, msg, at); markErr != nil {
		// The row stays pending.
		m.logger.Error("failed to mark item failed", "item_id", item.ID, "error", markErr)
		return outcome
	}

	item.Status = domain.ItemStatusFailed
	item.ProcessedAt = &at
	item.RetryCount++
	item.ErrorMessage = &msg

	m.publish(ctx, src, item, nil)
	return outcome
}

func (m *Monitor) publish(ctx context.Context, src domain.Source, item *domain.Item, translation *domain.Translation) {
	if m.publisher == nil {
		return
	}

	event := &domain.ItemEvent{
		Action:      string(item.Status),
		Source:      src.Name,
		Item:        *item,
		Translation: translation,
		Timestamp:   m.now().UTC(),
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.Warn("failed to publish item event", "item_id", item.ID, "error", err)
	}
}

// getTranslator builds the translator on first use and caches it for the
// lifetime of the Monitor.
func (m *Monitor) getTranslator(cfg *domain.UserConfig) (Translator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.translator != nil {
		return m.translator, nil
	}

	name := m.cfg.Translator
	if name == "" {
		name = cfg.TranslatorService
	}

	m.logger.Info("creating translator", "service", name)

	t, err := m.newTranslator(name)
	if err != nil {
		return nil, err
	}
	m.translator = t
	return t, nil
}
