package acquire

import (
	"context"
	"time"

	"github.com/agriscan/agriscan/internal/store"
)

// Janitor periodically prunes sample rows older than the retention window.
// It runs in its own transaction, so it never interleaves with an in-flight
// batch commit.
type Janitor struct {
	store    *store.Store
	days     int
	interval time.Duration
}

// NewJanitor creates a retention janitor. days <= 0 disables pruning.
func NewJanitor(st *store.Store, days int, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Janitor{store: st, days: days, interval: interval}
}

// Run prunes once at startup and then on every interval until ctx is
// cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	if j.days <= 0 {
		log.Info("retention pruning disabled")
		<-ctx.Done()
		return nil
	}

	log.Info("retention janitor started", "days", j.days, "interval", j.interval)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.prune(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			j.prune(ctx)
		}
	}
}

func (j *Janitor) prune(ctx context.Context) {
	deleted, err := j.store.PruneOlderThan(ctx, j.days)
	if err != nil {
		log.Warn("prune failed", "error", err)
		return
	}
	if deleted > 0 {
		log.Info("retention prune complete", "rows", deleted)
	}
}
