package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/alert"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/service"
)

// AlertService is implemented by service.AlertService
type AlertService interface {
	Broadcast(ctx context.Context, senderID uuid.UUID, req alert.BroadcastRequest) (*service.Created, error)
	SOS(ctx context.Context, reporterID uuid.UUID, req alert.SOSRequest) (*service.Created, error)
	Feed(ctx context.Context, viewerID uuid.UUID) ([]*domain.Alert, error)
	Get(ctx context.Context, viewerID, alertID uuid.UUID) (*domain.Alert, error)
	List(ctx context.Context, query domain.AlertQuery) ([]domain.Alert, error)
	Escalations(ctx context.Context) ([]domain.Alert, error)
	Targets(ctx context.Context, tags domain.Tags) ([]domain.DisplayInfo, error)
	Preview(ctx context.Context, spec domain.TargetSpec) (*service.Preview, error)
}

type AlertsHandler struct {
	service AlertService
}

func NewAlertsHandler(service AlertService) *AlertsHandler {
	return &AlertsHandler{service: service}
}

// BroadcastRequest body of POST /v1/alerts
type BroadcastRequest struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Category domain.Category   `json:"category"`
	Severity domain.Severity   `json:"severity"`
	Target   domain.TargetSpec `json:"target"`
	Location string            `json:"location"`
}

// SOSRequest body of POST /v1/alerts/sos
type SOSRequest struct {
	Title      string      `json:"title"`
	Message    string      `json:"message"`
	Location   string      `json:"location"`
	Recipients []uuid.UUID `json:"recipients"`
}

// AlertListResponse wraps alert listings
type AlertListResponse struct {
	Alerts interface{} `json:"alerts"`
	Count  int         `json:"count"`
}

// Broadcast POST /v1/alerts
func (h *AlertsHandler) Broadcast(c *fiber.Ctx) error {
	senderID, err := middleware.GetIdentityID(c)
	if err != nil {
		return err
	}

	var req BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	created, err := h.service.Broadcast(c.Context(), senderID, alert.BroadcastRequest{
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
		Severity: req.Severity,
		Target:   req.Target,
		Location: req.Location,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// SOS POST /v1/alerts/sos
func (h *AlertsHandler) SOS(c *fiber.Ctx) error {
	reporterID, err := middleware.GetIdentityID(c)
	if err != nil {
		return err
	}

	var req SOSRequest
	// Empty body is a plain SOS
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return domain.ErrBadRequest.WithError(err)
		}
	}

	created, err := h.service.SOS(c.Context(), reporterID, alert.SOSRequest{
		Title:      req.Title,
		Body:       req.Message,
		Location:   req.Location,
		Recipients: req.Recipients,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// Feed GET /v1/alerts - alerts targeting the caller
func (h *AlertsHandler) Feed(c *fiber.Ctx) error {
	viewerID, err := middleware.GetIdentityID(c)
	if err != nil {
		return err
	}

	alerts, err := h.service.Feed(c.Context(), viewerID)
	if err != nil {
		return err
	}

	return c.JSON(AlertListResponse{Alerts: alerts, Count: len(alerts)})
}

// Get GET /v1/alerts/:id
func (h *AlertsHandler) Get(c *fiber.Ctx) error {
	viewerID, err := middleware.GetIdentityID(c)
	if err != nil {
		return err
	}

	alertID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrAlertNotFound
	}

	a, err := h.service.Get(c.Context(), viewerID, alertID)
	if err != nil {
		return err
	}

	return c.JSON(a)
}

// List GET /v1/alerts/all?category=&severity=&limit=
func (h *AlertsHandler) List(c *fiber.Ctx) error {
	query := domain.AlertQuery{
		Category: domain.Category(c.Query("category")),
		Severity: domain.Severity(c.Query("severity")),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return domain.ErrValidationFailed
		}
		query.Limit = limit
	}

	alerts, err := h.service.List(c.Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(AlertListResponse{Alerts: alerts, Count: len(alerts)})
}

// Escalations GET /v1/alerts/escalations
func (h *AlertsHandler) Escalations(c *fiber.Ctx) error {
	alerts, err := h.service.Escalations(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(AlertListResponse{Alerts: alerts, Count: len(alerts)})
}

// Targets GET /v1/alerts/targets?unit=&sub_unit=&level=
func (h *AlertsHandler) Targets(c *fiber.Ctx) error {
	tags := domain.Tags{}
	for _, kind := range []domain.TagKind{domain.TagUnit, domain.TagSubUnit, domain.TagLevel} {
		if v := strings.TrimSpace(c.Query(string(kind))); v != "" {
			tags[kind] = v
		}
	}

	members, err := h.service.Targets(c.Context(), tags)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"members": members,
		"count":   len(members),
	})
}

// Preview POST /v1/alerts/preview
func (h *AlertsHandler) Preview(c *fiber.Ctx) error {
	var spec domain.TargetSpec
	if err := c.BodyParser(&spec); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	preview, err := h.service.Preview(c.Context(), spec)
	if err != nil {
		return err
	}

	return c.JSON(preview)
}
