package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// quietPaths are polled by orchestrators and scrapers; logged at debug
var quietPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// Logger writes one line per request. Errors from the chain are rendered
// here so the logged status is the one the client receives.
func Logger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case quietPaths[c.Path()]:
			level = slog.LevelDebug
		}

		attrs := append([]slog.Attr{
			slog.String("method", c.Method()),
			slog.String("route", c.Route().Path),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
			slog.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}, requestAttrs(c)...)

		logger.LogAttrs(c.Context(), level, "http request", attrs...)
		return nil
	}
}

// requestAttrs identifies the request and, once authenticated, its caller
func requestAttrs(c *fiber.Ctx) []slog.Attr {
	var attrs []slog.Attr
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if id, err := GetIdentityID(c); err == nil {
		attrs = append(attrs, slog.String("identity_id", id.String()))
	}
	if role, err := GetRole(c); err == nil {
		attrs = append(attrs, slog.String("role", string(role)))
	}
	return attrs
}
