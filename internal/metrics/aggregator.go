package metrics

import (
	"context"
	"log/slog"
	"time"
)

// FailureCounter counts no-match attempts recorded after since
type FailureCounter interface {
	CountFailures(ctx context.Context, since time.Time) (int64, error)
}

// Aggregator periodically refreshes gauges that need a database query
type Aggregator struct {
	source   FailureCounter
	metrics  *Metrics
	window   time.Duration
	logger   *slog.Logger
	interval time.Duration
	done     chan struct{}
}

// NewAggregator creates a new metrics aggregator worker
func NewAggregator(source FailureCounter, m *Metrics, window time.Duration, logger *slog.Logger, interval time.Duration) *Aggregator {
	if interval == 0 {
		interval = 1 * time.Minute
	}

	return &Aggregator{
		source:   source,
		metrics:  m,
		window:   window,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the aggregation worker
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("metrics aggregator started", "interval", a.interval)
	a.aggregate(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("metrics aggregator stopped")
			return
		case <-a.done:
			a.logger.Info("metrics aggregator stopped")
			return
		case <-ticker.C:
			a.aggregate(ctx)
		}
	}
}

// Stop gracefully shuts down the aggregator
func (a *Aggregator) Stop() {
	close(a.done)
}

func (a *Aggregator) aggregate(ctx context.Context) {
	count, err := a.source.CountFailures(ctx, time.Now().Add(-a.window))
	if err != nil {
		a.logger.Error("failed to count recent failures", "error", err)
		return
	}

	a.metrics.RecentFailures.Set(float64(count))
}
