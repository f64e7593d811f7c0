package reaper

import (
	"context"
	"log/slog"
	"time"
)

type userStore interface {
	// DeleteExpiredUnverified removes unverified users whose OTP expired
	// before cutoff and returns the count removed.
	DeleteExpiredUnverified(ctx context.Context, cutoff time.Time) (int, error)
}

// Reaper periodically deletes identities that never completed verification
// before their OTP expired. It is owned by the process: the caller starts it
// with a context and cancels that context to stop it. Sweep failures are
// logged and retried on the next tick, never escalated to request handlers.
type Reaper struct {
	repo     userStore
	interval time.Duration
	now      func() time.Time
}

// New builds a Reaper. A nil now means time.Now.
func New(repo userStore, interval time.Duration, now func() time.Time) *Reaper {
	if now == nil {
		now = time.Now
	}
	return &Reaper{repo: repo, interval: interval, now: now}
}

// Start runs the sweep loop until ctx is cancelled. It returns immediately;
// sweeps happen on a background goroutine.
func (r *Reaper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil {
					slog.Error("reaper sweep failed", "err", err)
				}
			}
		}
	}()
}

// RunOnce performs a single sweep and returns the number of users removed.
// Running against an empty result set is a no-op.
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	removed, err := r.repo.DeleteExpiredUnverified(ctx, r.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		slog.Info("removed expired unverified users", "count", removed)
	}
	return removed, nil
}
