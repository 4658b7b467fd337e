package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum_relay/internal/config"
	"forum_relay/internal/domain"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	a := newApp(io.Discard, io.Discard)
	a.cfg = config.Default()
	a.cfg.Database.Path = filepath.Join(t.TempDir(), "relay.db")
	a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	t.Cleanup(a.close)
	return a
}

func TestSeedFromEnv(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	st, err := a.stores(ctx)
	require.NoError(t, err)

	env := map[string]string{
		"MONITOR_INTERVAL":    "600",
		"DISCORD_WEBHOOK_URL": "https://discord.com/api/webhooks/123/abc",
		"SUBREDDITS":          "golang, rust,,x",
	}

	res, err := seedFromEnv(ctx, st, func(k string) string { return env[k] }, a.logger)
	require.NoError(t, err)

	assert.True(t, res.ConfigCreated)
	assert.True(t, res.WebhookCreated)
	assert.Equal(t, []string{"golang", "rust"}, res.SourcesAdded)

	cfg, err := st.configs.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ko", cfg.Language)
	assert.Equal(t, "gemini", cfg.TranslatorService)
	assert.Equal(t, 10, cfg.PollIntervalMinutes)

	target, err := st.webhooks.FirstEnabled(ctx)
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, domain.TargetDiscord, target.Type)

	again, err := seedFromEnv(ctx, st, func(k string) string { return env[k] }, a.logger)
	require.NoError(t, err)
	assert.False(t, again.ConfigCreated)
	assert.False(t, again.WebhookCreated)
	assert.Empty(t, again.SourcesAdded)

	sources, err := st.sources.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestSeedFromEnv_IgnoresPlaceholderWebhook(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	st, err := a.stores(ctx)
	require.NoError(t, err)

	env := map[string]string{"DISCORD_WEBHOOK_URL": placeholderWebhookURL}

	res, err := seedFromEnv(ctx, st, func(k string) string { return env[k] }, a.logger)
	require.NoError(t, err)
	assert.False(t, res.WebhookCreated)

	cfg, err := st.configs.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.PollIntervalMinutes)
}

func TestIntervalMinutes(t *testing.T) {
	assert.Equal(t, 5, intervalMinutes(""))
	assert.Equal(t, 5, intervalMinutes("junk"))
	assert.Equal(t, 1, intervalMinutes("30"))
	assert.Equal(t, 2, intervalMinutes("150"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitError, exitCode(assert.AnError))
	assert.Equal(t, exitValidation, exitCode(domain.ErrValidation))
	assert.Equal(t, exitInterrupted, exitCode(context.Canceled))
	assert.Equal(t, exitMonitoring, exitCode(withCode(exitMonitoring, domain.ErrValidation)))
}

func TestCycleFailed(t *testing.T) {
	assert.False(t, cycleFailed(&domain.CycleStats{}))
	assert.False(t, cycleFailed(&domain.CycleStats{TotalChecked: 2, Errors: 1}))
	assert.True(t, cycleFailed(&domain.CycleStats{TotalChecked: 2, Errors: 2}))
	assert.True(t, cycleFailed(&domain.CycleStats{Errors: 1}))
}

func TestNewSource(t *testing.T) {
	src, err := newSource("golang", domain.SourceKindReddit, "")
	require.NoError(t, err)
	assert.Equal(t, "https://www.reddit.com/r/golang", src.URL)

	_, err = newSource("go", domain.SourceKindReddit, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = newSource("blog", domain.SourceKindRSS, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	src, err = newSource("blog", domain.SourceKindRSS, "https://go.dev/blog/feed.atom")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceKindRSS, src.Kind)

	_, err = newSource("x", "mastodon", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
