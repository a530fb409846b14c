package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/shopverse/internal/repository"
)

// SessionSweeper periodically deletes expired sessions.
type SessionSweeper struct {
	Store    repository.Store
	Interval time.Duration
}

// Run sweeps once per Interval (hourly by default) until ctx is done.
// Failures are logged and the next tick tries again.
func (w SessionSweeper) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass and returns how many sessions it removed.
func (w SessionSweeper) SweepOnce(ctx context.Context) int {
	n, err := w.Store.SweepExpiredSessions(ctx)
	if err != nil {
		log.Printf("session-sweeper: sweep failed: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("session-sweeper: removed %d expired sessions", n)
	}
	return n
}
