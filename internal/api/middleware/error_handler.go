package middleware

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

// defaultRetryAfter is sent with a 429 when the limiter set no Retry-After
const defaultRetryAfter = 60

// ErrorHandler renders every error as
// {"error": {"code", "message", "request_id"}}. Server-side failures are
// logged with the request and caller; client errors are not.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := toAppError(err)

		if appErr.StatusCode >= 500 {
			attrs := append([]slog.Attr{
				slog.String("code", appErr.Code),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("error", err),
			}, requestAttrs(c)...)
			logger.LogAttrs(c.Context(), slog.LevelError, "request failed", attrs...)
		}

		if appErr.StatusCode == fiber.StatusTooManyRequests && c.GetRespHeader(fiber.HeaderRetryAfter) == "" {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(defaultRetryAfter))
		}

		body := fiber.Map{
			"code":    appErr.Code,
			"message": appErr.Message,
		}
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			body["request_id"] = id
		}

		return c.Status(appErr.StatusCode).JSON(fiber.Map{"error": body})
	}
}

// toAppError maps any error onto the API error vocabulary. Unknown errors
// become INTERNAL_ERROR so their text never reaches the client.
func toAppError(err error) *domain.AppError {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &domain.AppError{
			Code:       httpErrorCode(fiberErr.Code),
			Message:    fiberErr.Message,
			StatusCode: fiberErr.Code,
		}
	}

	return domain.ErrInternal.WithError(err)
}

func httpErrorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return domain.ErrBadRequest.Code
	case fiber.StatusNotFound:
		return domain.ErrNotFound.Code
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusTooManyRequests:
		return domain.ErrRateLimitExceeded.Code
	default:
		return "HTTP_ERROR"
	}
}
