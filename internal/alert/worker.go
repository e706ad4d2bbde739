package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/metrics"
)

type Pruner interface {
	PruneAttempts(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper drops expired rows of some other table on the same schedule
type Sweeper interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// RetentionWorker drops attempt records older than the retention period.
// Retention is never shorter than the suspicion window, so pruning cannot
// change an analysis result.
type RetentionWorker struct {
	pruner    Pruner
	retention time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
	interval  time.Duration
	sweepers  []Sweeper
	done      chan struct{}
	stopOnce  sync.Once
}

func NewRetentionWorker(pruner Pruner, retention time.Duration, m *metrics.Metrics, logger *slog.Logger, interval time.Duration) *RetentionWorker {
	if interval == 0 {
		interval = 15 * time.Minute
	}

	return &RetentionWorker{
		pruner:    pruner,
		retention: retention,
		metrics:   m,
		logger:    logger,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

func (w *RetentionWorker) WithSweeper(s Sweeper) *RetentionWorker {
	w.sweepers = append(w.sweepers, s)
	return w
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("retention worker started", "interval", w.interval, "retention", w.retention)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retention worker stopped")
			return
		case <-w.done:
			w.logger.Info("retention worker stopped")
			return
		case <-ticker.C:
			w.process(ctx)
		}
	}
}

func (w *RetentionWorker) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *RetentionWorker) process(ctx context.Context) {
	cutoff := time.Now().Add(-w.retention)

	deleted, err := w.pruner.PruneAttempts(ctx, cutoff)
	if err != nil {
		w.logger.Error("failed to prune attempts", "error", err, "cutoff", cutoff)
	} else if deleted > 0 {
		w.metrics.PrunedAttempts.Add(float64(deleted))
		w.logger.Info("pruned attempt records", "count", deleted, "cutoff", cutoff)
	}

	for _, s := range w.sweepers {
		n, err := s.CleanupExpired(ctx)
		if err != nil {
			w.logger.Warn("sweep failed", "error", err)
			continue
		}
		if n > 0 {
			w.logger.Debug("swept expired rows", "count", n)
		}
	}
}
