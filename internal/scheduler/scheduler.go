// Package scheduler runs monitoring cycles on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"forum_relay/internal/domain"
)

const DefaultCycleTimeout = 10 * time.Minute

// Runner runs one monitoring cycle over all enabled sources.
type Runner interface {
	CheckAllEnabled(ctx context.Context) *domain.CycleStats
}

type Scheduler struct {
	runner       Runner
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *slog.Logger
}

func NewScheduler(runner Runner, interval, cycleTimeout time.Duration, logger *slog.Logger) *Scheduler {
	if cycleTimeout <= 0 {
		cycleTimeout = DefaultCycleTimeout
	}
	return &Scheduler{
		runner:       runner,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		logger:       logger.With("component", "scheduler"),
	}
}

// Start runs a cycle, sleeps for the interval and repeats until ctx is done.
// A cycle in progress is not interrupted by ctx; only the sleep is. It always
// returns ctx's error.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	for cycle := 1; ; cycle++ {
		s.runCycle(ctx, cycle)

		if ctx.Err() != nil {
			break
		}

		s.logger.Info("sleeping until next cycle", "interval", s.interval)

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}

	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) runCycle(ctx context.Context, cycle int) {
	cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cycleTimeout)
	defer cancel()

	s.logger.Info("cycle started", "cycle", cycle)

	stats := s.runner.CheckAllEnabled(cycleCtx)

	s.logger.Info("cycle completed",
		"cycle", cycle,
		"sources_checked", stats.TotalChecked,
		"posts_processed", stats.TotalPosts,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)
}
