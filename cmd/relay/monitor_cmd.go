package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"forum_relay/internal/domain"
	"forum_relay/internal/publisher"
	"forum_relay/internal/service"
	"forum_relay/internal/source"
	"forum_relay/internal/source/reddit"
	"forum_relay/internal/source/rss"
	"forum_relay/internal/translator"
	"forum_relay/internal/webhook"
)

func newMonitorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run monitoring cycles",
	}

	var (
		once     bool
		daemon   bool
		interval time.Duration
	)
	start := &cobra.Command{
		Use:   "start",
		Short: "Check all enabled sources once (--once) or repeatedly (--daemon)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if once && daemon {
				return fmt.Errorf("%w: --once and --daemon are mutually exclusive", domain.ErrValidation)
			}
			if daemon {
				return a.monitorDaemon(cmd.Context(), interval)
			}
			return a.monitorOnce(cmd.Context())
		},
	}
	start.Flags().BoolVar(&once, "once", false, "run a single cycle and exit (default)")
	start.Flags().BoolVar(&daemon, "daemon", false, "run cycles until interrupted")
	start.Flags().DurationVar(&interval, "interval", 0, "time between daemon cycles (default: stored poll_interval)")

	cmd.AddCommand(start)
	return cmd
}

// newMonitor wires the stores, source clients, translator factory, webhook
// sender and the optional event publisher into a Monitor.
func (a *app) newMonitor(ctx context.Context) (*service.Monitor, func(), error) {
	st, err := a.stores(ctx)
	if err != nil {
		return nil, nil, err
	}

	fetchers := source.NewMux()
	fetchers.Register(domain.SourceKindReddit, reddit.New(a.cfg.Reddit, a.logger))
	fetchers.Register(domain.SourceKindRSS, rss.New(a.cfg.RSS, a.logger))

	cleanup := func() {}
	var pub service.Publisher
	if a.cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(a.cfg.RabbitMQ, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		pub = rabbitMQ
		cleanup = func() {
			if err := rabbitMQ.Close(); err != nil {
				a.logger.Warn("failed to close rabbitmq", "error", err)
			}
		}
	}

	m := service.NewMonitor(service.Dependencies{
		Configs:      st.configs,
		Sources:      st.sources,
		Items:        st.items,
		Translations: st.translations,
		Webhooks:     st.webhooks,
		Fetcher:      fetchers,
		Sender:       webhook.NewSender(a.cfg.Webhook, a.logger),
		TxManager:    st.tx,
		NewTranslator: func(name string) (service.Translator, error) {
			return translator.New(name, a.cfg.Translators, a.logger)
		},
		Publisher: pub,
	}, service.Config{
		PageSize:     a.cfg.Monitor.PageSize,
		Translator:   a.cfg.Monitor.Translator,
		CycleTimeout: a.cfg.Monitor.CycleTimeout,
	}, a.logger)

	return m, cleanup, nil
}

func (a *app) monitorOnce(ctx context.Context) error {
	if _, err := a.loadUserConfig(ctx); err != nil {
		return withCode(exitMonitoring, fmt.Errorf("monitoring failed: %w", err))
	}

	m, cleanup, err := a.newMonitor(ctx)
	if err != nil {
		return withCode(exitMonitoring, fmt.Errorf("monitoring failed: %w", err))
	}
	defer cleanup()

	a.info("Starting single monitoring cycle...")
	stats := m.RunOnce(ctx)

	if err := a.success("Monitoring cycle complete", map[string]any{
		"total_checked": stats.TotalChecked,
		"total_posts":   stats.TotalPosts,
		"errors":        stats.Errors,
	}); err != nil {
		return err
	}
	a.info("Sources checked: %d", stats.TotalChecked)
	a.info("New posts processed: %d", stats.TotalPosts)
	if stats.Errors > 0 {
		a.info("Errors: %d", stats.Errors)
	}

	if cycleFailed(stats) {
		return withCode(exitMonitoring, errors.New("monitoring failed: no source could be checked"))
	}
	return nil
}

// cycleFailed reports whether a cycle made no progress at all: the source
// list could not be read or every checked source failed.
func cycleFailed(stats *domain.CycleStats) bool {
	if stats.Errors == 0 {
		return false
	}
	return stats.TotalChecked == 0 || stats.Errors == stats.TotalChecked
}

func (a *app) monitorDaemon(ctx context.Context, interval time.Duration) error {
	cfg, err := a.loadUserConfig(ctx)
	if err != nil {
		return withCode(exitMonitoring, fmt.Errorf("monitoring failed: %w", err))
	}

	if interval <= 0 {
		interval = a.cfg.Monitor.Interval
	}
	if interval <= 0 {
		interval = cfg.PollInterval()
	}
	if interval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", domain.ErrValidation)
	}

	m, cleanup, err := a.newMonitor(ctx)
	if err != nil {
		return withCode(exitMonitoring, fmt.Errorf("monitoring failed: %w", err))
	}
	defer cleanup()

	a.logger.Info("starting forum relay daemon", "interval", interval)
	a.info("Monitoring every %s, press Ctrl+C to stop", interval)

	err = m.RunDaemon(ctx, interval)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("daemon stopped")
	}
	return err
}
