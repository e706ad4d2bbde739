package middleware

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/auth"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authApp(tokens *auth.JWTService, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(testLogger())})
	app.Use(Auth(AuthDependencies{Tokens: tokens, Logger: testLogger()}))
	for _, g := range guards {
		app.Use(g)
	}
	app.Get("/me", func(c *fiber.Ctx) error {
		id, err := GetIdentityID(c)
		if err != nil {
			return err
		}
		role, err := GetRole(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String() + ":" + string(role))
	})
	return app
}

func TestAuth(t *testing.T) {
	tokens := auth.NewJWTService("secret", "campusguard-test", time.Hour)
	identityID := uuid.New()
	valid, err := tokens.GenerateToken(identityID, domain.RoleMember)
	require.NoError(t, err)

	expired, err := auth.NewJWTService("secret", "campusguard-test", -time.Hour).GenerateToken(identityID, domain.RoleMember)
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		query          string
		expectedStatus int
	}{
		{name: "valid token", authHeader: "Bearer " + valid, expectedStatus: 200},
		{name: "lowercase scheme", authHeader: "bearer " + valid, expectedStatus: 200},
		{name: "query token", query: "?access_token=" + valid, expectedStatus: 200},
		{name: "missing header", expectedStatus: 401},
		{name: "wrong scheme", authHeader: "Basic " + valid, expectedStatus: 401},
		{name: "garbage token", authHeader: "Bearer not-a-jwt", expectedStatus: 401},
		{name: "expired token", authHeader: "Bearer " + expired, expectedStatus: 401},
	}

	app := authApp(tokens)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me"+tt.query, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == 200 {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, identityID.String()+":member", string(body))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewJWTService("secret", "campusguard-test", time.Hour)
	app := authApp(tokens, RequireRole(domain.RoleAdmin, domain.RoleSecurity))

	tests := []struct {
		role           domain.Role
		expectedStatus int
	}{
		{role: domain.RoleAdmin, expectedStatus: 200},
		{role: domain.RoleSecurity, expectedStatus: 200},
		{role: domain.RoleMember, expectedStatus: 403},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			token, err := tokens.GenerateToken(uuid.New(), tt.role)
			require.NoError(t, err)

			req := httptest.NewRequest("GET", "/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(testLogger())})
	app.Get("/", RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error { return c.SendString("OK") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}
