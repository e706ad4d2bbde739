package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/service"
)

// IdentityService is implemented by service.IdentityService
type IdentityService interface {
	Profile(ctx context.Context, identityID uuid.UUID) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, identityID uuid.UUID, update domain.ProfileUpdate) (*domain.Identity, error)
	Staff(ctx context.Context) ([]domain.DisplayInfo, error)
	Attempts(ctx context.Context, identityID uuid.UUID) (*service.AttemptReport, error)
}

type IdentitiesHandler struct {
	service IdentityService
}

func NewIdentitiesHandler(service IdentityService) *IdentitiesHandler {
	return &IdentitiesHandler{service: service}
}

// ProfileRequest body of PATCH /v1/identities/me. Omitted fields are left
// unchanged; an empty string clears an optional field.
type ProfileRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Unit    *string `json:"unit"`
	SubUnit *string `json:"sub_unit"`
	Level   *string `json:"level"`
}

// Me GET /v1/identities/me
func (h *IdentitiesHandler) Me(c *fiber.Ctx) error {
	identityID, err := middleware.GetIdentityID(c)
	if err != nil {
		return err
	}

	identity, err := h.service.Profile(c.Context(), identityID)
	if err != nil {
		return err
	}

	return c.JSON(identity)
}

// UpdateMe PATCH /v1/identities/me
func (h *IdentitiesHandler) UpdateMe(c *fiber.Ctx) error {
	identityID, err := middleware.GetIdentityID(c)
	if err != nil {
		return err
	}

	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	identity, err := h.service.UpdateProfile(c.Context(), identityID, domain.ProfileUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Unit:    req.Unit,
		SubUnit: req.SubUnit,
		Level:   req.Level,
	})
	if err != nil {
		return err
	}

	return c.JSON(identity)
}

// Staff GET /v1/identities/staff
func (h *IdentitiesHandler) Staff(c *fiber.Ctx) error {
	staff, err := h.service.Staff(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"staff": staff,
		"count": len(staff),
	})
}

// Attempts GET /v1/identities/:id/attempts
func (h *IdentitiesHandler) Attempts(c *fiber.Ctx) error {
	identityID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrIdentityNotFound
	}

	report, err := h.service.Attempts(c.Context(), identityID)
	if err != nil {
		return err
	}

	return c.JSON(report)
}
