// Package ratelimit throttles outbound calls to external sources.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket holding up to perMinute tokens, refilled
// continuously at perMinute/60 tokens per second. It is safe for concurrent use.
type Limiter struct {
	limiter   *rate.Limiter
	perMinute int
	logger    *slog.Logger
}

func New(perMinute int, logger *slog.Logger) *Limiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &Limiter{
		limiter:   rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		perMinute: perMinute,
		logger:    logger,
	}
}

// Acquire blocks until a token is available and consumes it.
// A timeout of zero waits until ctx is done. It returns false without
// consuming a token if the wait would exceed the timeout or ctx ends first.
func (l *Limiter) Acquire(ctx context.Context, timeout time.Duration) bool {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := l.limiter.Wait(ctx); err != nil {
		l.logger.Warn("rate limit acquisition timeout", "error", err)
		return false
	}

	l.logger.Debug("token acquired", "remaining", l.limiter.Tokens())
	return true
}

// Wait is Acquire without a timeout, returning ctx's error on cancellation.
func (l *Limiter) Wait(ctx context.Context) error {
	if !l.Acquire(ctx, 0) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return context.DeadlineExceeded
	}
	return nil
}

func (l *Limiter) PerMinute() int {
	return l.perMinute
}
