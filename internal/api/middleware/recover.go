package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

// Recover turns a handler panic into an INTERNAL_ERROR rendered by
// ErrorHandler. The stack is logged with the request and caller.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			attrs := append([]slog.Attr{
				slog.Any("panic", r),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("stack", string(debug.Stack())),
			}, requestAttrs(c)...)
			logger.LogAttrs(c.Context(), slog.LevelError, "panic recovered", attrs...)

			err = domain.ErrInternal.WithError(fmt.Errorf("panic: %v", r))
		}()
		return c.Next()
	}
}
