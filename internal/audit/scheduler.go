package audit

// scheduler.go runs the audit retention job.
//
// The job deletes entries older than the retention window in batches until a
// batch comes back short. It runs once on start, then every CheckInterval,
// and stops when the context is cancelled. Failures are logged; the next run
// tries again.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig holds configuration for the retention scheduler.
type RetentionConfig struct {
	RetentionDays int           // Days to keep entries (default: 90)
	BatchSize     int           // Rows per delete batch (default: 5000)
	CheckInterval time.Duration // How often to run (default: 24h)
}

// Purger deletes expired audit entries.
type Purger interface {
	Purge(ctx context.Context, retentionDays, batchSize int) (int64, error)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 90
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5000
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartRetentionScheduler blocks running the purge job until ctx is done.
func StartRetentionScheduler(ctx context.Context, p Purger, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("audit retention scheduler started",
		"retention_days", cfg.RetentionDays,
		"batch_size", cfg.BatchSize,
		"interval", cfg.CheckInterval,
	)

	runRetentionJob(ctx, p, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("audit retention scheduler stopped")
			return
		case <-ticker.C:
			runRetentionJob(ctx, p, cfg)
		}
	}
}

// runRetentionJob performs one purge cycle and returns the rows deleted.
func runRetentionJob(ctx context.Context, p Purger, cfg RetentionConfig) int64 {
	start := time.Now()
	var total int64

	for ctx.Err() == nil {
		n, err := p.Purge(ctx, cfg.RetentionDays, cfg.BatchSize)
		if err != nil {
			slog.Error("audit purge failed", "error", err)
			break
		}
		total += n
		if n < int64(cfg.BatchSize) {
			break
		}
	}

	slog.Info("audit retention job completed",
		"entries_purged", total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return total
}
