package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

// Counter is implemented by ratelimit.RateLimiter
type Counter interface {
	Check(ctx context.Context, key string, limit int) error
}

// Throttle limits a route per authenticated identity using a counter shared
// across instances. Counter failures let the request through.
func Throttle(counter Counter, scope string, limit int, retryAfterSeconds int, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identityID, err := GetIdentityID(c)
		if err != nil {
			return err
		}

		err = counter.Check(c.Context(), scope+":"+identityID.String(), limit)
		if errors.Is(err, domain.ErrRateLimitExceeded) {
			c.Set("Retry-After", strconv.Itoa(retryAfterSeconds))
			return err
		}
		if err != nil {
			logger.Warn("throttle check failed, allowing request",
				"scope", scope,
				"identity_id", identityID,
				"error", err,
			)
		}

		return c.Next()
	}
}
