package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/webhook"
)

// WebhookService is implemented by webhook.Service
type WebhookService interface {
	List(ctx context.Context) ([]*webhook.Webhook, error)
	Create(ctx context.Context, w *webhook.Webhook) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type WebhooksHandler struct {
	service WebhookService
	logger  *slog.Logger
}

func NewWebhooksHandler(service WebhookService, logger *slog.Logger) *WebhooksHandler {
	return &WebhooksHandler{
		service: service,
		logger:  logger,
	}
}

type CreateWebhookRequest struct {
	Name        string            `json:"name"`
	URL         string            `json:"url"`
	Categories  []domain.Category `json:"categories"`
	MinSeverity domain.Severity   `json:"min_severity"`
	Enabled     *bool             `json:"enabled"`
}

func (r *CreateWebhookRequest) validate() error {
	if len(strings.TrimSpace(r.Name)) < 3 {
		return errors.New("name must have at least 3 characters")
	}
	u, err := url.Parse(r.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url %q", r.URL)
	}
	for _, c := range r.Categories {
		if !c.IsValid() {
			return fmt.Errorf("unknown category %q", c)
		}
	}
	if r.MinSeverity != "" && !r.MinSeverity.IsValid() {
		return fmt.Errorf("unknown severity %q", r.MinSeverity)
	}
	return nil
}

// List GET /v1/admin/webhooks
func (h *WebhooksHandler) List(c *fiber.Ctx) error {
	webhooks, err := h.service.List(c.Context())
	if err != nil {
		return domain.ErrPersistenceFailed.WithError(err)
	}

	return c.JSON(fiber.Map{
		"webhooks": webhooks,
	})
}

// Create POST /v1/admin/webhooks. The signing secret is only returned here.
func (h *WebhooksHandler) Create(c *fiber.Ctx) error {
	var req CreateWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if err := req.validate(); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	secret, err := generateSecret(32)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	w := &webhook.Webhook{
		Name:        strings.TrimSpace(req.Name),
		URL:         req.URL,
		Secret:      secret,
		Categories:  req.Categories,
		MinSeverity: req.MinSeverity,
		Enabled:     req.Enabled == nil || *req.Enabled,
	}

	if err := h.service.Create(c.Context(), w); err != nil {
		return domain.ErrPersistenceFailed.WithError(err)
	}

	h.logger.Info("webhook created",
		"webhook_id", w.ID,
		"name", w.Name,
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"webhook": w,
		"secret":  secret,
	})
}

// Delete DELETE /v1/admin/webhooks/:id
func (h *WebhooksHandler) Delete(c *fiber.Ctx) error {
	webhookID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return webhook.ErrWebhookNotFound
	}

	if err := h.service.Delete(c.Context(), webhookID); err != nil {
		if errors.Is(err, webhook.ErrWebhookNotFound) {
			return err
		}
		return domain.ErrPersistenceFailed.WithError(err)
	}

	h.logger.Info("webhook deleted", "webhook_id", webhookID)

	return c.SendStatus(fiber.StatusNoContent)
}

func generateSecret(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
