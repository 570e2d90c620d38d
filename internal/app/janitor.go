package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"
)

// snapshotSweeper removes snapshots not written since a cutoff.
type snapshotSweeper interface {
	DeleteOlderThan(ctx context.Context, t time.Time) (int64, error)
}

// Janitor periodically removes abandoned session snapshots.
type Janitor struct {
	store     snapshotSweeper
	clock     clockwork.Clock
	retention time.Duration
	interval  time.Duration
	log       *slog.Logger
	scheduler *gocron.Scheduler
}

// NewJanitor creates a Janitor that deletes snapshots older than retention.
func NewJanitor(store snapshotSweeper, clock clockwork.Clock, interval, retention time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		store:     store,
		clock:     clock,
		retention: retention,
		interval:  interval,
		log:       logger.With("service", "janitor"),
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the sweep every interval, starting immediately.
func (j *Janitor) Start(ctx context.Context) error {
	if _, err := j.scheduler.Every(j.interval).Do(func() {
		if _, err := j.Sweep(ctx); err != nil {
			j.log.ErrorContext(ctx, "snapshot sweep failed", slog.String("error", err.Error()))
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	j.scheduler.StartAsync()
	j.log.InfoContext(ctx, "janitor started",
		slog.Duration("interval", j.interval),
		slog.Duration("retention", j.retention),
	)
	return nil
}

// Stop cancels the schedule and waits for a running sweep.
func (j *Janitor) Stop() {
	j.scheduler.Stop()
}

// Sweep deletes every snapshot last written before now minus the retention.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	cutoff := j.clock.Now().Add(-j.retention)

	deleted, err := j.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete snapshots before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	if deleted > 0 {
		j.log.InfoContext(ctx, "stale snapshots removed",
			slog.Int64("deleted", deleted),
			slog.Time("cutoff", cutoff),
		)
	}
	return deleted, nil
}
