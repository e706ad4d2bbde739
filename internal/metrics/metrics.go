package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

const namespace = "campusguard"

// Metrics holds the Prometheus collectors for verification and alerting
type Metrics struct {
	Verifications      *prometheus.CounterVec
	ComparisonDuration *prometheus.HistogramVec
	Escalations        prometheus.Counter
	Alerts             *prometheus.CounterVec
	Recipients         prometheus.Histogram
	DeliveryFailures   *prometheus.CounterVec
	RecentFailures     prometheus.Gauge
	PrunedAttempts     prometheus.Counter
}

// New registers every collector on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verifications_total",
				Help:      "Verification attempts by outcome",
			},
			[]string{"outcome"}, // match, no_match, indeterminate
		),

		ComparisonDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "comparison_duration_seconds",
				Help:      "Time spent in the face comparator",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),

		Escalations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Verification escalation alerts raised",
		}),

		Alerts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_total",
				Help:      "Alerts created by category and severity",
			},
			[]string{"category", "severity"},
		),

		Recipients: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alert_recipients",
			Help:      "Resolved recipients per alert",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),

		DeliveryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "delivery_failures_total",
				Help:      "Alert delivery failures by channel",
			},
			[]string{"channel"}, // bus, webhook
		),

		RecentFailures: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recent_failed_attempts",
			Help:      "No-match attempts inside the suspicion window, all identities",
		}),

		PrunedAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pruned_attempts_total",
			Help:      "Attempt records removed by retention",
		}),
	}
}

func (m *Metrics) ObserveVerification(outcome domain.Outcome) {
	m.Verifications.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) ObserveComparison(provider string, elapsed time.Duration) {
	m.ComparisonDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAlert(alert *domain.Alert, recipients int) {
	m.Alerts.WithLabelValues(string(alert.Category), string(alert.Severity)).Inc()
	m.Recipients.Observe(float64(recipients))
	if alert.Category == domain.CategoryEscalation {
		m.Escalations.Inc()
	}
}

func (m *Metrics) ObserveDeliveryFailure(channel string) {
	m.DeliveryFailures.WithLabelValues(channel).Inc()
}
