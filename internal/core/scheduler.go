package core

// scheduler.go runs background maintenance for the session service.
//
// Merge sessions live in memory only, so sessions abandoned by their users
// are expired after Session.IdleTimeout. The sweeper is long-running and
// stops when its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is used when StartSessionSweeper gets no interval.
const DefaultSweepInterval = time.Minute

// StartSessionSweeper periodically deletes idle sessions until ctx is done.
// Run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session sweeper started",
		"interval", interval.String(),
		"idle_timeout", s.cfg.IdleTimeout.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep()
		}
	}
}

// runSweep performs one expiry pass.
func (s *Service) runSweep() {
	start := time.Now()
	expired := s.SweepIdle()
	if len(expired) == 0 {
		slog.Debug("session sweep found nothing to expire")
		return
	}
	for _, id := range expired {
		slog.Info("session expired", "session_id", id)
	}
	slog.Info("session sweep completed",
		"sessions_expired", len(expired),
		"sessions_open", s.SessionCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
