package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

func TestObserveVerification(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveVerification(domain.OutcomeMatch)
	m.ObserveVerification(domain.OutcomeNoMatch)
	m.ObserveVerification(domain.OutcomeNoMatch)
	m.ObserveVerification(domain.OutcomeIndeterminate)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("match")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Verifications.WithLabelValues("no_match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("indeterminate")))
}

func TestObserveAlert(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAlert(&domain.Alert{ID: uuid.New(), Category: domain.CategoryEscalation, Severity: domain.SeverityHigh}, 4)
	m.ObserveAlert(&domain.Alert{ID: uuid.New(), Category: domain.CategorySOS, Severity: domain.SeverityCritical}, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Escalations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Alerts.WithLabelValues("sos", "critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Alerts.WithLabelValues("verification_escalation", "high")))
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

type stubCounter struct {
	count int64
	err   error
	since time.Time
}

func (s *stubCounter) CountFailures(_ context.Context, since time.Time) (int64, error) {
	s.since = since
	return s.count, s.err
}

func TestAggregator_SetsRecentFailures(t *testing.T) {
	m := New(prometheus.NewRegistry())
	source := &stubCounter{count: 7}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	agg := NewAggregator(source, m, 10*time.Minute, logger, time.Hour)
	agg.aggregate(context.Background())

	assert.Equal(t, 7.0, testutil.ToFloat64(m.RecentFailures))
	assert.WithinDuration(t, time.Now().Add(-10*time.Minute), source.since, 5*time.Second)
}

func TestAggregator_KeepsGaugeOnError(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecentFailures.Set(3)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	agg := NewAggregator(&stubCounter{err: errors.New("db down")}, m, time.Minute, logger, 0)
	agg.aggregate(context.Background())

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecentFailures))
	assert.Equal(t, time.Minute, agg.interval)
}

func TestAggregator_StopsOnContextCancel(t *testing.T) {
	m := New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := NewAggregator(&stubCounter{}, m, time.Minute, logger, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		agg.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "aggregator did not stop")
	}
}
