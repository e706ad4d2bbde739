package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/textproto"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/alert"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/service"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/webhook"
)

type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) Enroll(ctx context.Context, identityID uuid.UUID, image []byte) (*domain.Reference, error) {
	args := m.Called(ctx, identityID, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reference), args.Error(1)
}

func (m *MockVerificationService) VerifySelf(ctx context.Context, identityID uuid.UUID, live []byte) (*service.Verification, error) {
	args := m.Called(ctx, identityID, live)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Verification), args.Error(1)
}

func (m *MockVerificationService) VerifyScan(ctx context.Context, verifierID uuid.UUID, enrollmentNumber string, live []byte) (*service.Verification, error) {
	args := m.Called(ctx, verifierID, enrollmentNumber, live)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Verification), args.Error(1)
}

type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) Broadcast(ctx context.Context, senderID uuid.UUID, req alert.BroadcastRequest) (*service.Created, error) {
	args := m.Called(ctx, senderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Created), args.Error(1)
}

func (m *MockAlertService) SOS(ctx context.Context, reporterID uuid.UUID, req alert.SOSRequest) (*service.Created, error) {
	args := m.Called(ctx, reporterID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Created), args.Error(1)
}

func (m *MockAlertService) Feed(ctx context.Context, viewerID uuid.UUID) ([]*domain.Alert, error) {
	args := m.Called(ctx, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Alert), args.Error(1)
}

func (m *MockAlertService) Get(ctx context.Context, viewerID, alertID uuid.UUID) (*domain.Alert, error) {
	args := m.Called(ctx, viewerID, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Alert), args.Error(1)
}

func (m *MockAlertService) List(ctx context.Context, query domain.AlertQuery) ([]domain.Alert, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Alert), args.Error(1)
}

func (m *MockAlertService) Escalations(ctx context.Context) ([]domain.Alert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Alert), args.Error(1)
}

func (m *MockAlertService) Targets(ctx context.Context, tags domain.Tags) ([]domain.DisplayInfo, error) {
	args := m.Called(ctx, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DisplayInfo), args.Error(1)
}

func (m *MockAlertService) Preview(ctx context.Context, spec domain.TargetSpec) (*service.Preview, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Preview), args.Error(1)
}

type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) Profile(ctx context.Context, identityID uuid.UUID) (*domain.Identity, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityService) UpdateProfile(ctx context.Context, identityID uuid.UUID, update domain.ProfileUpdate) (*domain.Identity, error) {
	args := m.Called(ctx, identityID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityService) Staff(ctx context.Context) ([]domain.DisplayInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DisplayInfo), args.Error(1)
}

func (m *MockIdentityService) Attempts(ctx context.Context, identityID uuid.UUID) (*service.AttemptReport, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AttemptReport), args.Error(1)
}

type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) List(ctx context.Context) ([]*webhook.Webhook, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*webhook.Webhook), args.Error(1)
}

func (m *MockWebhookService) Create(ctx context.Context, w *webhook.Webhook) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockWebhookService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestApp simulates authentication as identityID with role
func createTestApp(identityID uuid.UUID, role domain.Role) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(testLogger())})

	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalIdentityID, identityID)
		c.Locals(middleware.LocalRole, role)
		return c.Next()
	})

	return app
}

// createMultipartRequest builds a form with optional fields and an image part
func createMultipartRequest(fields map[string]string, imageContent []byte, contentType string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}

	if imageContent != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="capture.jpg"`)
		h.Set("Content-Type", contentType)

		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		_, _ = part.Write(imageContent)
	}

	_ = writer.Close()
	return body, writer.FormDataContentType(), nil
}
