package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/alert"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/audience"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

const (
	defaultFeedLimit     = 50
	defaultFeedScanLimit = 500
	escalationListLimit  = 50
)

type AlertReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Alert, error)
	Recent(ctx context.Context, before *domain.AlertCursor, limit int) ([]domain.Alert, error)
	List(ctx context.Context, query domain.AlertQuery) ([]domain.Alert, error)
}

type IdentityLister interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	List(ctx context.Context, filter domain.IdentityFilter) ([]domain.Identity, error)
}

type AlertRaiser interface {
	Raise(ctx context.Context, a *domain.Alert) (int, error)
}

type RecipientResolver interface {
	Recipients(ctx context.Context, spec domain.TargetSpec) ([]*domain.Identity, error)
}

// Created is the response to alert creation
type Created struct {
	Alert      *domain.Alert `json:"alert"`
	Recipients int           `json:"recipients"`
}

// Preview lists who a target specification would reach
type Preview struct {
	Count      int                  `json:"count"`
	Recipients []domain.DisplayInfo `json:"recipients"`
}

type AlertService struct {
	alerts     AlertReader
	identities IdentityLister
	raiser     AlertRaiser
	recipients RecipientResolver
	resolver   *audience.Resolver
	feedLimit  int
	scanLimit  int
	logger     *slog.Logger
}

func NewAlertService(
	alerts AlertReader,
	identities IdentityLister,
	raiser AlertRaiser,
	recipients RecipientResolver,
	resolver *audience.Resolver,
	logger *slog.Logger,
) *AlertService {
	return &AlertService{
		alerts:     alerts,
		identities: identities,
		raiser:     raiser,
		recipients: recipients,
		resolver:   resolver,
		feedLimit:  defaultFeedLimit,
		scanLimit:  defaultFeedScanLimit,
		logger:     logger.With("component", "alerts"),
	}
}

// WithFeedLimits sets how many alerts a feed returns and how many alerts
// are read per page while filling it.
func (s *AlertService) WithFeedLimits(limit, scan int) *AlertService {
	if limit > 0 {
		s.feedLimit = limit
	}
	if scan >= s.feedLimit {
		s.scanLimit = scan
	}
	return s
}

// Broadcast creates an administrative announcement
func (s *AlertService) Broadcast(ctx context.Context, senderID uuid.UUID, req alert.BroadcastRequest) (*Created, error) {
	a, err := alert.NewBroadcast(senderID, req)
	if err != nil {
		return nil, err
	}

	n, err := s.raiser.Raise(ctx, a)
	if err != nil {
		return nil, err
	}

	s.logger.Info("broadcast created", "alert_id", a.ID, "sender_id", senderID, "recipients", n)
	return &Created{Alert: a, Recipients: n}, nil
}

// SOS raises a critical alert on behalf of a member
func (s *AlertService) SOS(ctx context.Context, reporterID uuid.UUID, req alert.SOSRequest) (*Created, error) {
	reporter, err := s.identities.GetByID(ctx, reporterID)
	if err != nil {
		return nil, storeError(err)
	}

	a := alert.NewSOS(reporter, req)
	n, err := s.raiser.Raise(ctx, a)
	if err != nil {
		return nil, err
	}

	s.logger.Warn("sos raised",
		"alert_id", a.ID,
		"reporter_id", reporterID,
		"location", a.Location,
		"recipients", n,
	)
	return &Created{Alert: a, Recipients: n}, nil
}

// Feed returns the newest alerts visible to the viewer. Visibility uses the
// same predicate as delivery. Pages are read newest first until the feed is
// full or the store runs out, so older alerts are never hidden behind
// newer ones addressed to someone else.
func (s *AlertService) Feed(ctx context.Context, viewerID uuid.UUID) ([]*domain.Alert, error) {
	viewer, err := s.identities.GetByID(ctx, viewerID)
	if err != nil {
		return nil, storeError(err)
	}

	var (
		visible []*domain.Alert
		cursor  *domain.AlertCursor
		v       = audience.ViewerOf(viewer)
	)
	for len(visible) < s.feedLimit {
		page, err := s.alerts.Recent(ctx, cursor, s.scanLimit)
		if err != nil {
			return nil, storeError(err)
		}

		visible = append(visible, s.resolver.Filter(pointers(page), v)...)
		if len(page) < s.scanLimit {
			break
		}
		cursor = domain.CursorOf(&page[len(page)-1])
	}

	if len(visible) > s.feedLimit {
		visible = visible[:s.feedLimit]
	}
	if visible == nil {
		visible = []*domain.Alert{}
	}
	return visible, nil
}

// Get returns an alert only when the viewer is among its audience
func (s *AlertService) Get(ctx context.Context, viewerID, alertID uuid.UUID) (*domain.Alert, error) {
	viewer, err := s.identities.GetByID(ctx, viewerID)
	if err != nil {
		return nil, storeError(err)
	}

	a, err := s.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, storeError(err)
	}

	// Staff can open any alert; members only what targets them
	if !viewer.Role.IsStaff() && !audience.IsRecipient(a.Target, audience.ViewerOf(viewer)) {
		return nil, domain.ErrAlertNotFound
	}
	return a, nil
}

// List is the administrative listing, unfiltered by audience
func (s *AlertService) List(ctx context.Context, query domain.AlertQuery) ([]domain.Alert, error) {
	if query.Category != "" && !query.Category.IsValid() {
		return nil, domain.ErrValidationFailed
	}
	if query.Severity != "" && !query.Severity.IsValid() {
		return nil, domain.ErrValidationFailed
	}

	alerts, err := s.alerts.List(ctx, query)
	if err != nil {
		return nil, storeError(err)
	}
	return alerts, nil
}

// Escalations lists the newest verification escalations
func (s *AlertService) Escalations(ctx context.Context) ([]domain.Alert, error) {
	return s.List(ctx, domain.AlertQuery{Category: domain.CategoryEscalation, Limit: escalationListLimit})
}

// Targets lists members matching the classification filter, for building targeted alerts
func (s *AlertService) Targets(ctx context.Context, tags domain.Tags) ([]domain.DisplayInfo, error) {
	for kind := range tags {
		if !kind.IsValid() {
			return nil, domain.ErrInvalidTargetSpec
		}
	}

	members, err := s.identities.List(ctx, domain.IdentityFilter{Role: domain.RoleMember, Tags: tags})
	if err != nil {
		return nil, storeError(err)
	}

	out := make([]domain.DisplayInfo, len(members))
	for i := range members {
		out[i] = members[i].Display()
	}
	return out, nil
}

// Preview resolves spec against the population without creating anything
func (s *AlertService) Preview(ctx context.Context, spec domain.TargetSpec) (*Preview, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	resolved, err := s.recipients.Recipients(ctx, spec)
	if err != nil {
		return nil, err
	}

	p := &Preview{Count: len(resolved), Recipients: make([]domain.DisplayInfo, len(resolved))}
	for i, identity := range resolved {
		p.Recipients[i] = identity.Display()
	}
	return p, nil
}

func pointers(alerts []domain.Alert) []*domain.Alert {
	out := make([]*domain.Alert, len(alerts))
	for i := range alerts {
		out[i] = &alerts[i]
	}
	return out
}
