package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"SiteForge/internal/domain"
	"SiteForge/internal/metrics"
	"SiteForge/internal/ports"
)

// Janitor removes transient copies that outlived their TTL, for example
// audit copies whose background delete failed.
type Janitor struct {
	driver  ports.Scheduler
	store   ports.ArtifactStore
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewJanitor wires the periodic sweep.
func NewJanitor(driver ports.Scheduler, store ports.ArtifactStore, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{driver: driver, store: store, ttl: ttl, logger: logger, metrics: m}
}

// Start registers the sweep with the scheduler.
func (j *Janitor) Start(ctx context.Context) error {
	if j.driver == nil || j.store == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := j.Sweep(ctx, trigger); err != nil {
			j.logger.Warn("janitor sweep failed", "error", err)
		}
	}

	return j.driver.Start(ctx, job)
}

// Stop tears down the scheduler.
func (j *Janitor) Stop(ctx context.Context) error {
	if j.driver == nil {
		return nil
	}

	return j.driver.Stop(ctx)
}

// Sweep deletes transient artifacts last written before now-ttl.
func (j *Janitor) Sweep(ctx context.Context, now time.Time) (int, error) {
	items, err := j.store.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list artifacts: %w", err)
	}

	cutoff := now.Add(-j.ttl)
	deleted := 0
	for _, item := range items {
		if !strings.Contains(item.Key, "/"+domain.TransientPrefix) || item.Timestamp.After(cutoff) {
			continue
		}
		if err := j.store.Delete(ctx, item.Key); err != nil {
			return deleted, fmt.Errorf("delete %s: %w", item.Key, err)
		}
		deleted++
	}

	j.metrics.JanitorDeleted(deleted)
	if deleted > 0 {
		j.logger.Info("transient artifacts removed", "count", deleted)
	}
	return deleted, nil
}
