package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/auth"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/ws"
)

const (
	// LocalIdentityID is the key to retrieve the authenticated identity ID from context
	LocalIdentityID = ws.IdentityLocal
	// LocalRole is the key to retrieve the identity's role from context
	LocalRole = "role"
)

// TokenValidator parses access tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

type AuthDependencies struct {
	Tokens TokenValidator
	Logger *slog.Logger
}

// Auth authenticates the request with a bearer JWT. Websocket upgrades may
// pass the token as the access_token query parameter instead.
func Auth(deps AuthDependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			token = c.Query("access_token")
		}
		if token == "" {
			return domain.ErrUnauthorized
		}

		claims, err := deps.Tokens.ValidateToken(token)
		if err != nil {
			deps.Logger.Debug("rejected access token", "error", err, "path", c.Path())
			return domain.ErrUnauthorized
		}

		c.Locals(LocalIdentityID, claims.IdentityID)
		c.Locals(LocalRole, claims.Role)

		return c.Next()
	}
}

// RequireRole only lets identities holding one of roles through. Must be
// chained after Auth.
func RequireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, err := GetRole(c)
		if err != nil {
			return err
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return domain.ErrForbidden
	}
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// GetIdentityID retrieves the authenticated identity ID from Fiber context
func GetIdentityID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(LocalIdentityID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return id, nil
}

// GetRole retrieves the authenticated identity's role from Fiber context
func GetRole(c *fiber.Ctx) (domain.Role, error) {
	role, ok := c.Locals(LocalRole).(domain.Role)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return role, nil
}
