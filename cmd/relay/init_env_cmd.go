package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"forum_relay/internal/domain"
	"forum_relay/internal/source/reddit"
)

const placeholderWebhookURL = "https://discord.com/api/webhooks/your_webhook_url"

func newInitFromEnvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init-from-env",
		Short: "Seed configuration, webhook and subreddits from environment variables",
		Long: `Reads MONITOR_INTERVAL (seconds), DISCORD_WEBHOOK_URL and SUBREDDITS
(comma separated) and creates whatever does not exist yet. Running it twice is
harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.stores(cmd.Context())
			if err != nil {
				return err
			}
			res, err := seedFromEnv(cmd.Context(), st, os.Getenv, a.logger)
			if err != nil {
				return fmt.Errorf("init from env: %w", err)
			}
			return a.success("Initialization from environment variables complete", map[string]any{
				"config_created":  res.ConfigCreated,
				"webhook_created": res.WebhookCreated,
				"sources_added":   res.SourcesAdded,
			})
		},
	}
}

type seedResult struct {
	ConfigCreated  bool
	WebhookCreated bool
	SourcesAdded   []string
}

// seedFromEnv creates the user config, the Discord webhook and the listed
// subreddits when they are missing. Existing rows are left untouched.
func seedFromEnv(ctx context.Context, st *stores, getenv func(string) string, logger *slog.Logger) (*seedResult, error) {
	res := &seedResult{SourcesAdded: []string{}}

	err := st.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := st.configs.Get(ctx); errors.Is(err, domain.ErrNotFound) {
			cfg, err := st.configs.Init(ctx)
			if err != nil {
				return fmt.Errorf("init config: %w", err)
			}
			cfg.Language = "ko"
			cfg.TranslatorService = "gemini"
			cfg.PollIntervalMinutes = intervalMinutes(getenv("MONITOR_INTERVAL"))
			if err := st.configs.Update(ctx, cfg); err != nil {
				return fmt.Errorf("update config: %w", err)
			}
			res.ConfigCreated = true
			logger.Info("created config", "language", cfg.Language, "translator", cfg.TranslatorService,
				"poll_interval_minutes", cfg.PollIntervalMinutes)
		} else if err != nil {
			return fmt.Errorf("get config: %w", err)
		}

		if url := strings.TrimSpace(getenv("DISCORD_WEBHOOK_URL")); url != "" && url != placeholderWebhookURL {
			_, err := st.webhooks.Get(ctx, domain.TargetDiscord)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				if _, err := st.webhooks.Upsert(ctx, domain.TargetDiscord, url); err != nil {
					return fmt.Errorf("create webhook: %w", err)
				}
				res.WebhookCreated = true
				logger.Info("created discord webhook")
			case err != nil:
				return fmt.Errorf("get webhook: %w", err)
			}
		}

		for _, name := range strings.Split(getenv("SUBREDDITS"), ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if err := reddit.ValidateName(name); err != nil {
				logger.Warn("skipping invalid subreddit name", "name", name, "error", err)
				continue
			}

			_, err := st.sources.GetByName(ctx, name)
			if err == nil {
				logger.Info("subreddit already exists", "name", name)
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("get source: %w", err)
			}

			src := &domain.Source{Name: name, Kind: domain.SourceKindReddit, URL: reddit.SubredditURL(name), Enabled: true}
			if err := st.sources.Create(ctx, src); err != nil {
				return fmt.Errorf("add source %s: %w", name, err)
			}
			res.SourcesAdded = append(res.SourcesAdded, name)
			logger.Info("added subreddit", "name", name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// intervalMinutes converts MONITOR_INTERVAL seconds to whole minutes,
// defaulting to 300 seconds and never going below one minute.
func intervalMinutes(raw string) int {
	seconds := 300
	if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && v > 0 {
		seconds = v
	}
	return max(seconds/60, 1)
}
