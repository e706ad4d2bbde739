package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/audit"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/match"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/metrics"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/suspicion"
)

// AttemptStore appends one record and returns the identity's history since
// the given instant, read in the same transaction.
type AttemptStore interface {
	AppendAttempt(ctx context.Context, record *domain.AttemptRecord, since time.Time) ([]domain.AttemptRecord, error)
}

type AlertStore interface {
	Create(ctx context.Context, alert *domain.Alert) error
}

// Broadcaster delivers a stored alert and reports how many identities it targeted
type Broadcaster interface {
	Notify(ctx context.Context, alert *domain.Alert) (int, error)
}

// Result is what one verification outcome caused
type Result struct {
	Recorded  bool              `json:"recorded"`
	Escalated bool              `json:"escalated"`
	Alert     *domain.Alert     `json:"alert,omitempty"`
	Analysis  *suspicion.Result `json:"analysis,omitempty"`
}

// Dispatcher turns verification outcomes into attempt records and, when
// the analyzer flags the identity, into escalation alerts. It also raises
// alerts created elsewhere (broadcasts, SOS).
type Dispatcher struct {
	attempts AttemptStore
	alerts   AlertStore
	notifier Broadcaster
	analyzer *suspicion.Analyzer
	locks    *KeyLock
	audit    audit.Logger
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewDispatcher(
	attempts AttemptStore,
	alerts AlertStore,
	notifier Broadcaster,
	analyzer *suspicion.Analyzer,
	auditLogger audit.Logger,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Dispatcher {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &Dispatcher{
		attempts: attempts,
		alerts:   alerts,
		notifier: notifier,
		analyzer: analyzer,
		locks:    NewKeyLock(),
		audit:    auditLogger,
		metrics:  m,
		logger:   logger.With("component", "dispatcher"),
		now:      time.Now,
	}
}

// DispatchVerificationOutcome runs one verdict through the state machine:
// a match ends there, a no-match is recorded and analyzed, and a suspicious
// analysis raises exactly one escalation. An indeterminate verdict records
// nothing. Appending and analyzing are serialized per identity.
func (d *Dispatcher) DispatchVerificationOutcome(ctx context.Context, identity *domain.Identity, verdict match.Verdict) (*Result, error) {
	if verdict.Outcome != domain.OutcomeNoMatch {
		return &Result{}, nil
	}

	unlock, err := d.locks.Lock(ctx, identity.ID)
	if err != nil {
		return nil, domain.ErrPersistenceFailed.WithError(fmt.Errorf("wait for attempt lock: %w", err))
	}

	now := d.now().UTC()
	record := &domain.AttemptRecord{
		ID:         uuid.New(),
		IdentityID: identity.ID,
		Timestamp:  now,
		Outcome:    domain.OutcomeNoMatch,
		Confidence: verdict.Confidence,
	}

	history, err := d.attempts.AppendAttempt(ctx, record, now.Add(-d.analyzer.Window()))
	if err != nil {
		unlock()
		return nil, domain.ErrPersistenceFailed.WithError(fmt.Errorf("append attempt: %w", err))
	}

	analysis := d.analyzer.Analyze(history, now)
	result := &Result{Recorded: true, Analysis: &analysis}

	d.logAudit(ctx, audit.Event{
		IdentityID: identity.ID,
		EventType:  audit.EventAttemptRecorded,
		Success:    true,
		Metadata: map[string]string{
			"attempt_id":    record.ID.String(),
			"confidence":    strconv.FormatFloat(record.Confidence, 'f', 2, 64),
			"attempt_count": strconv.Itoa(analysis.AttemptCount),
		},
	})

	if !analysis.IsSuspicious {
		unlock()
		return result, nil
	}

	escalation := NewEscalation(identity, analysis)
	escalation.CreatedAt = now
	err = d.alerts.Create(ctx, escalation)
	unlock()
	if err != nil {
		return nil, domain.ErrPersistenceFailed.WithError(fmt.Errorf("create escalation: %w", err))
	}

	d.logger.Warn("suspicious verification activity",
		"identity_id", identity.ID,
		"attempt_count", analysis.AttemptCount,
		"window_minutes", analysis.WindowMinutes,
		"alert_id", escalation.ID,
	)

	d.logAudit(ctx, audit.Event{
		IdentityID: identity.ID,
		EventType:  audit.EventEscalationRaised,
		Success:    true,
		Metadata: map[string]string{
			"alert_id":      escalation.ID.String(),
			"attempt_count": strconv.Itoa(analysis.AttemptCount),
		},
	})

	d.notify(ctx, escalation)

	result.Escalated = true
	result.Alert = escalation
	return result, nil
}

// Raise validates, stores and delivers an alert. Delivery problems are
// logged; only storage failures are returned.
func (d *Dispatcher) Raise(ctx context.Context, alert *domain.Alert) (int, error) {
	if err := alert.Target.Validate(); err != nil {
		return 0, err
	}
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = d.now().UTC()
	}

	if err := d.alerts.Create(ctx, alert); err != nil {
		return 0, domain.ErrPersistenceFailed.WithError(fmt.Errorf("create alert: %w", err))
	}

	return d.notify(ctx, alert), nil
}

func (d *Dispatcher) notify(ctx context.Context, alert *domain.Alert) int {
	recipients, err := d.notifier.Notify(ctx, alert)
	if err != nil {
		d.logger.Error("alert delivery incomplete",
			"alert_id", alert.ID,
			"category", alert.Category,
			"error", err,
		)
	}
	d.metrics.ObserveAlert(alert, recipients)
	return recipients
}

func (d *Dispatcher) logAudit(ctx context.Context, event audit.Event) {
	if err := d.audit.Log(ctx, event); err != nil {
		d.logger.Warn("audit log failed", "event_type", event.EventType, "error", err)
	}
}
