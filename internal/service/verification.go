package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/alert"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/audit"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/match"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/metrics"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/provider"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/ws"
)

type IdentityReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	GetByEnrollmentNumber(ctx context.Context, enrollmentNumber string) (*domain.Identity, error)
}

type ReferenceWriter interface {
	SaveReference(ctx context.Context, id uuid.UUID, ref *domain.Reference) error
}

type IdentityStore interface {
	IdentityReader
	ReferenceWriter
}

type OutcomeDispatcher interface {
	DispatchVerificationOutcome(ctx context.Context, identity *domain.Identity, verdict match.Verdict) (*alert.Result, error)
}

// ResultPusher sends events to the live connections of the given identities
type ResultPusher interface {
	SendTo(recipients []uuid.UUID, eventType ws.EventType, data interface{})
}

// Verification is returned to the caller of a verification
type Verification struct {
	match.Verdict
	Identity   domain.DisplayInfo `json:"identity"`
	VerifiedBy *uuid.UUID         `json:"verified_by,omitempty"`
	Recorded   bool               `json:"recorded"`
	Escalated  bool               `json:"escalated"`
	AlertID    *uuid.UUID         `json:"alert_id,omitempty"`
	Provider   string             `json:"provider"`
	LatencyMs  int64              `json:"latency_ms"`
}

type VerificationService struct {
	identities IdentityStore
	comparator provider.Comparator
	evaluator  *match.Evaluator
	dispatcher OutcomeDispatcher
	pusher     ResultPusher
	audit      audit.Logger
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewVerificationService(
	identities IdentityStore,
	comparator provider.Comparator,
	evaluator *match.Evaluator,
	dispatcher OutcomeDispatcher,
	auditLogger audit.Logger,
	m *metrics.Metrics,
	logger *slog.Logger,
) *VerificationService {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &VerificationService{
		identities: identities,
		comparator: comparator,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		audit:      auditLogger,
		metrics:    m,
		logger:     logger.With("component", "verification"),
	}
}

// WithPusher pushes every completed verification to the verified identity
// and, for scans, to the verifier.
func (s *VerificationService) WithPusher(p ResultPusher) *VerificationService {
	s.pusher = p
	return s
}

// Enroll extracts and stores the identity's reference, replacing any previous one
func (s *VerificationService) Enroll(ctx context.Context, identityID uuid.UUID, image []byte) (*domain.Reference, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage
	}

	if _, err := s.identities.GetByID(ctx, identityID); err != nil {
		return nil, storeError(err)
	}

	ref, err := s.comparator.Enroll(ctx, image)
	if err != nil {
		s.logAudit(ctx, audit.Event{
			IdentityID: identityID,
			ActorID:    identityID,
			EventType:  audit.EventReferenceEnrolled,
			Provider:   s.comparator.Name(),
			Error:      err.Error(),
		})
		return nil, enrollmentError(err)
	}
	if ref.EnrolledAt.IsZero() {
		ref.EnrolledAt = time.Now().UTC()
	}

	if err := s.identities.SaveReference(ctx, identityID, ref); err != nil {
		return nil, storeError(err)
	}

	s.logAudit(ctx, audit.Event{
		IdentityID: identityID,
		ActorID:    identityID,
		EventType:  audit.EventReferenceEnrolled,
		Provider:   s.comparator.Name(),
		Success:    true,
	})

	s.logger.Info("reference enrolled", "identity_id", identityID, "provider", s.comparator.Name())
	return ref, nil
}

// VerifySelf compares the caller's live capture with their own reference
func (s *VerificationService) VerifySelf(ctx context.Context, identityID uuid.UUID, live []byte) (*Verification, error) {
	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, storeError(err)
	}

	v, err := s.verify(ctx, identity, identityID, live)
	if err != nil {
		return nil, err
	}

	s.push(v, identity.ID)
	return v, nil
}

// VerifyScan verifies a member identified by enrollment number on behalf of
// a staff verifier (QR-scan flow). Failures count against the member.
func (s *VerificationService) VerifyScan(ctx context.Context, verifierID uuid.UUID, enrollmentNumber string, live []byte) (*Verification, error) {
	if enrollmentNumber == "" {
		return nil, domain.ErrValidationFailed.WithError(errors.New("enrollment number required"))
	}

	identity, err := s.identities.GetByEnrollmentNumber(ctx, enrollmentNumber)
	if err != nil {
		return nil, storeError(err)
	}

	v, err := s.verify(ctx, identity, verifierID, live)
	if err != nil {
		return nil, err
	}

	v.VerifiedBy = &verifierID
	s.push(v, identity.ID, verifierID)
	return v, nil
}

func (s *VerificationService) push(v *Verification, recipients ...uuid.UUID) {
	if s.pusher == nil {
		return
	}
	s.pusher.SendTo(recipients, ws.EventVerification, v)
}

func (s *VerificationService) verify(ctx context.Context, identity *domain.Identity, actorID uuid.UUID, live []byte) (*Verification, error) {
	if len(live) == 0 {
		return nil, domain.ErrInvalidImage
	}
	if !identity.HasReference() {
		return nil, domain.ErrReferenceNotEnrolled
	}

	start := time.Now()
	distance, err := s.comparator.Compare(ctx, identity.Reference, live)
	elapsed := time.Since(start)
	s.metrics.ObserveComparison(s.comparator.Name(), elapsed)

	if err != nil {
		s.metrics.ObserveVerification(domain.OutcomeIndeterminate)
		s.logAudit(ctx, audit.Event{
			IdentityID: identity.ID,
			ActorID:    actorID,
			EventType:  audit.EventVerificationFailed,
			Provider:   s.comparator.Name(),
			Error:      err.Error(),
		})
		s.logger.Warn("comparison failed, verification indeterminate",
			"identity_id", identity.ID,
			"provider", s.comparator.Name(),
			"error", err,
		)
		return nil, domain.ErrExtractionFailed.WithError(err)
	}

	verdict := s.evaluator.Evaluate(distance)
	s.metrics.ObserveVerification(verdict.Outcome)

	s.logAudit(ctx, audit.Event{
		IdentityID: identity.ID,
		ActorID:    actorID,
		EventType:  audit.EventFaceCompared,
		Provider:   s.comparator.Name(),
		Success:    true,
		Metadata: map[string]string{
			"outcome":    string(verdict.Outcome),
			"distance":   strconv.FormatFloat(verdict.Distance, 'f', 4, 64),
			"confidence": strconv.FormatFloat(verdict.Confidence, 'f', 2, 64),
		},
	})

	if verdict.IsIndeterminate() {
		return nil, domain.ErrExtractionFailed.WithError(fmt.Errorf("unusable distance %v", distance))
	}

	result, err := s.dispatcher.DispatchVerificationOutcome(ctx, identity, verdict)
	if err != nil {
		return nil, err
	}

	v := &Verification{
		Verdict:   verdict,
		Identity:  identity.Display(),
		Recorded:  result.Recorded,
		Escalated: result.Escalated,
		Provider:  s.comparator.Name(),
		LatencyMs: elapsed.Milliseconds(),
	}
	if result.Alert != nil {
		v.AlertID = &result.Alert.ID
	}

	return v, nil
}

func enrollmentError(err error) error {
	switch {
	case errors.Is(err, provider.ErrNoFace):
		return domain.ErrNoFaceDetected.WithError(err)
	case errors.Is(err, provider.ErrMultipleFaces):
		return domain.ErrMultipleFaces.WithError(err)
	case errors.Is(err, domain.ErrInvalidImage):
		return err
	default:
		return domain.ErrExtractionFailed.WithError(err)
	}
}

func (s *VerificationService) logAudit(ctx context.Context, event audit.Event) {
	if err := s.audit.Log(ctx, event); err != nil {
		s.logger.Warn("audit log failed", "event_type", event.EventType, "error", err)
	}
}
