// Package webhook delivers notifications to Discord and Slack incoming webhooks.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"forum_relay/internal/domain"
)

const (
	DefaultMaxRetries  = 3
	DefaultTimeout     = 10 * time.Second
	DefaultBaseBackoff = time.Second
	DefaultRetryAfter  = 5 * time.Second
	MaxRetryAfter      = time.Hour
)

type Config struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	BaseBackoff time.Duration `yaml:"base_backoff"`
}

// Sender posts notifications with bounded retries.
type Sender struct {
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *slog.Logger
}

func NewSender(cfg Config, logger *slog.Logger) *Sender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultBaseBackoff
	}

	return &Sender{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.BaseBackoff,
		sleep:       sleepContext,
		logger:      logger.With("component", "webhook"),
	}
}

// Deliver posts n to target, retrying up to the configured number of
// attempts. Failures are reported in the result, never returned.
func (s *Sender) Deliver(ctx context.Context, target domain.WebhookTarget, n domain.Notification) domain.DeliveryResult {
	return s.deliver(ctx, target, n, s.maxRetries)
}

// Test sends a single-attempt test notification to target.
func (s *Sender) Test(ctx context.Context, target domain.WebhookTarget) domain.DeliveryResult {
	n := domain.Notification{
		SourceName: "test",
		SourceKind: domain.SourceKindReddit,
		Title:      "Test notification",
		Body:       "This is a test message from forum_relay. If you can see this, your webhook is configured correctly.",
		Permalink:  "https://www.reddit.com",
		Author:     "forum_relay",
	}
	return s.deliver(ctx, target, n, 1)
}

func (s *Sender) deliver(ctx context.Context, target domain.WebhookTarget, n domain.Notification, maxAttempts int) domain.DeliveryResult {
	logger := s.logger.With("type", target.Type, "title", n.Title)

	payload, err := buildPayload(target.Type, n)
	if err != nil {
		logger.Error("failed to build payload", "error", err)
		return domain.DeliveryResult{Err: err}
	}

	var result domain.DeliveryResult
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result.Attempts = attempt + 1

		status, header, err := s.post(ctx, target.URL, payload)
		result.StatusCode = status
		result.Err = err

		if err == nil && (status == http.StatusOK || status == http.StatusNoContent) {
			result.Delivered = true
			result.Err = nil
			logger.Info("webhook delivered", "attempts", result.Attempts, "status", status)
			return result
		}

		var wait time.Duration
		if err == nil && status == http.StatusTooManyRequests {
			wait = retryAfter(header, time.Now())
			result.Err = fmt.Errorf("rate limited: status %d", status)
			logger.Warn("rate limited by webhook", "attempt", result.Attempts, "retry_after", wait)
		} else {
			if err == nil {
				result.Err = fmt.Errorf("unexpected status: %d", status)
			}
			wait = s.baseBackoff * time.Duration(1<<attempt)
			logger.Warn("webhook delivery failed",
				"attempt", result.Attempts,
				"status", status,
				"error", result.Err,
			)
		}

		if attempt == maxAttempts-1 {
			break
		}

		if err := s.sleep(ctx, wait); err != nil {
			result.Err = err
			logger.Warn("webhook delivery interrupted", "error", err)
			return result
		}
	}

	logger.Error("webhook delivery failed after retries", "attempts", result.Attempts, "error", result.Err)
	return result
}

func (s *Sender) post(ctx context.Context, url string, payload []byte) (int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "ForumRelay/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, resp.Header, nil
}

// retryAfter reads a Retry-After value given in seconds or as an HTTP date.
// Missing, malformed or non-finite values and waits above MaxRetryAfter fall
// back to DefaultRetryAfter.
func retryAfter(header http.Header, now time.Time) time.Duration {
	raw := strings.TrimSpace(header.Get("Retry-After"))
	if raw == "" {
		return DefaultRetryAfter
	}

	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 || seconds > MaxRetryAfter.Seconds() {
			return DefaultRetryAfter
		}
		return time.Duration(seconds * float64(time.Second))
	}

	at, err := http.ParseTime(raw)
	if err != nil {
		return DefaultRetryAfter
	}
	wait := at.Sub(now)
	switch {
	case wait < 0:
		return 0
	case wait > MaxRetryAfter:
		return DefaultRetryAfter
	}
	return wait
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
