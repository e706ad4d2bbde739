package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/audit"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/suspicion"
)

const maxProfileField = 255

type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	List(ctx context.Context, filter domain.IdentityFilter) ([]domain.Identity, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.Identity, error)
	History(ctx context.Context, id uuid.UUID, since time.Time) ([]domain.AttemptRecord, error)
}

// AttemptReport is the recent verification record of one identity
type AttemptReport struct {
	Identity domain.DisplayInfo     `json:"identity"`
	Attempts []domain.AttemptRecord `json:"attempts"`
	Analysis suspicion.Result       `json:"analysis"`
}

// IdentityService manages profiles and the directories used to pick alert recipients
type IdentityService struct {
	identities ProfileStore
	analyzer   *suspicion.Analyzer
	audit      audit.Logger
	logger     *slog.Logger
	now        func() time.Time
}

func NewIdentityService(identities ProfileStore, analyzer *suspicion.Analyzer, auditLogger audit.Logger, logger *slog.Logger) *IdentityService {
	return &IdentityService{
		identities: identities,
		analyzer:   analyzer,
		audit:      auditLogger,
		logger:     logger.With("component", "identities"),
		now:        time.Now,
	}
}

// Profile returns the caller's own identity
func (s *IdentityService) Profile(ctx context.Context, identityID uuid.UUID) (*domain.Identity, error) {
	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, storeError(err)
	}
	return identity, nil
}

// UpdateProfile changes the caller's name, email and classification tags.
// Tag changes take effect for every later audience resolution, feeds included.
func (s *IdentityService) UpdateProfile(ctx context.Context, identityID uuid.UUID, update domain.ProfileUpdate) (*domain.Identity, error) {
	update = normalizeProfile(update)
	if update.IsEmpty() {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("no profile field to update"))
	}
	if err := validateProfile(update); err != nil {
		return nil, err
	}

	// Level is a member attribute; staff carry none
	if update.Level != nil {
		current, err := s.identities.GetByID(ctx, identityID)
		if err != nil {
			return nil, storeError(err)
		}
		if current.Role != domain.RoleMember {
			return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("level applies to members only"))
		}
	}

	identity, err := s.identities.UpdateProfile(ctx, identityID, update)
	if err != nil {
		return nil, storeError(err)
	}

	if update.TouchesTags() {
		metadata := make(map[string]string, len(identity.Tags))
		for kind, value := range identity.Tags {
			metadata[string(kind)] = value
		}
		event := audit.Event{
			IdentityID: identityID,
			ActorID:    identityID,
			EventType:  audit.EventProfileUpdated,
			Success:    true,
			Metadata:   metadata,
		}
		if err := s.audit.Log(ctx, event); err != nil {
			s.logger.Warn("failed to write audit event", "event_type", event.EventType, "error", err)
		}
	}
	s.logger.Info("profile updated", "identity_id", identityID, "tags_changed", update.TouchesTags())

	return identity, nil
}

// Staff lists administrators and security personnel, the people a member
// can name as explicit SOS recipients.
func (s *IdentityService) Staff(ctx context.Context) ([]domain.DisplayInfo, error) {
	staff, err := s.identities.List(ctx, domain.IdentityFilter{
		Roles: []domain.Role{domain.RoleAdmin, domain.RoleSecurity},
	})
	if err != nil {
		return nil, storeError(err)
	}

	out := make([]domain.DisplayInfo, len(staff))
	for i := range staff {
		out[i] = staff[i].Display()
		out[i].Tags = nil
	}
	return out, nil
}

// Attempts returns the identity's no-match records inside the analysis
// window together with the current analysis.
func (s *IdentityService) Attempts(ctx context.Context, identityID uuid.UUID) (*AttemptReport, error) {
	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, storeError(err)
	}

	now := s.now()
	history, err := s.identities.History(ctx, identityID, now.Add(-s.analyzer.Window()))
	if err != nil {
		return nil, storeError(err)
	}
	if history == nil {
		history = []domain.AttemptRecord{}
	}

	return &AttemptReport{
		Identity: identity.Display(),
		Attempts: history,
		Analysis: s.analyzer.Analyze(history, now),
	}, nil
}

func normalizeProfile(u domain.ProfileUpdate) domain.ProfileUpdate {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	return domain.ProfileUpdate{
		Name:    trim(u.Name),
		Email:   trim(u.Email),
		Unit:    trim(u.Unit),
		SubUnit: trim(u.SubUnit),
		Level:   trim(u.Level),
	}
}

func validateProfile(u domain.ProfileUpdate) error {
	if u.Name != nil && *u.Name == "" {
		return domain.ErrValidationFailed.WithError(fmt.Errorf("name cannot be empty"))
	}
	if u.Email != nil && *u.Email != "" {
		if _, err := mail.ParseAddress(*u.Email); err != nil {
			return domain.ErrValidationFailed.WithError(fmt.Errorf("invalid email %q", *u.Email))
		}
	}
	for field, v := range map[string]*string{
		"name": u.Name, "email": u.Email, "unit": u.Unit, "sub_unit": u.SubUnit, "level": u.Level,
	} {
		if v != nil && len(*v) > maxProfileField {
			return domain.ErrValidationFailed.WithError(fmt.Errorf("%s longer than %d characters", field, maxProfileField))
		}
	}
	return nil
}
