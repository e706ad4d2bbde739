package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/service"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// VerificationService is implemented by service.VerificationService
type VerificationService interface {
	Enroll(ctx context.Context, identityID uuid.UUID, image []byte) (*domain.Reference, error)
	VerifySelf(ctx context.Context, identityID uuid.UUID, live []byte) (*service.Verification, error)
	VerifyScan(ctx context.Context, verifierID uuid.UUID, enrollmentNumber string, live []byte) (*service.Verification, error)
}

// VerificationHandler handles enrollment and face verification requests
type VerificationHandler struct {
	service VerificationService
}

func NewVerificationHandler(service VerificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// EnrollResponse response for reference enrollment
type EnrollResponse struct {
	IdentityID string `json:"identity_id"`
	EnrolledAt string `json:"enrolled_at"`
}

// Enroll PUT /v1/identities/me/reference - replace the caller's reference image
func (h *VerificationHandler) Enroll(c *fiber.Ctx) error {
	// 1. Extract identity from context (already authenticated by middleware)
	identityID, err := middleware.GetIdentityID(c)
	if err != nil {
		return err
	}

	// 2. Extract and validate image
	image, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("enroll reference: %w", err)
	}

	// 3. Extract descriptor and store it
	ref, err := h.service.Enroll(c.Context(), identityID, image)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		IdentityID: identityID.String(),
		EnrolledAt: ref.EnrolledAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// VerifySelf POST /v1/verifications - compare a live capture against the caller's reference
func (h *VerificationHandler) VerifySelf(c *fiber.Ctx) error {
	identityID, err := middleware.GetIdentityID(c)
	if err != nil {
		return err
	}

	image, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("verify self: %w", err)
	}

	result, err := h.service.VerifySelf(c.Context(), identityID, image)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// VerifyScan POST /v1/verifications/scan - staff verify someone by enrollment number
func (h *VerificationHandler) VerifyScan(c *fiber.Ctx) error {
	// 1. Extract verifier from context
	verifierID, err := middleware.GetIdentityID(c)
	if err != nil {
		return err
	}

	// 2. Extract enrollment_number from form
	enrollmentNumber := strings.TrimSpace(c.FormValue("enrollment_number"))
	if enrollmentNumber == "" {
		return domain.ErrValidationFailed.WithError(errors.New("enrollment_number is required"))
	}

	// 3. Extract and validate image
	image, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("verify scan: %w", err)
	}

	// 4. Compare and dispatch the outcome
	result, err := h.service.VerifyScan(c.Context(), verifierID, enrollmentNumber, image)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// extractAndValidateImage extracts and validates the image from the form
func extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	// 1. Extract file
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	// 2. Validate size
	if file.Size > maxImageSize || file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("image size %d out of range", file.Size))
	}

	// 3. Validate Content-Type
	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("unsupported content type %q", contentType))
	}

	// 4. Read image bytes
	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	image, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return image, nil
}
