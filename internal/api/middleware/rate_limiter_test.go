package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedApp(rl *RateLimiter) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(testLogger())})
	app.Use(rl.Handler())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		identityID := uuid.New()
		rl := NewRateLimiter(RateLimiterConfig{
			Max:          5,
			Window:       time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string { return identityID.String() },
		})
		defer rl.Stop()
		app := limitedApp(rl)

		for i := 0; i < 5; i++ {
			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, "OK", string(body))
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		identityID := uuid.New()
		rl := NewRateLimiter(RateLimiterConfig{
			Max:          2,
			Window:       time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string { return identityID.String() },
		})
		defer rl.Stop()
		app := limitedApp(rl)

		for i := 0; i < 2; i++ {
			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		}

		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, 429, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("Retry-After"))
		assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	})

	t.Run("different identities have separate limits", func(t *testing.T) {
		var current string
		rl := NewRateLimiter(RateLimiterConfig{
			Max:          2,
			Window:       time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string { return current },
		})
		defer rl.Stop()
		app := limitedApp(rl)

		current = "identity-a"
		for i := 0; i < 2; i++ {
			resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
			assert.Equal(t, 200, resp.StatusCode)
		}
		resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, 429, resp.StatusCode)

		current = "identity-b"
		resp, _ = app.Test(httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("rate limit headers are set", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{
			Max:          10,
			Window:       time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string { return "someone" },
		})
		defer rl.Stop()
		app := limitedApp(rl)

		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, "10", resp.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", resp.Header.Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Reset"))
	})

	t.Run("allows anonymous requests", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{Max: 1, Window: time.Minute})
		defer rl.Stop()
		app := limitedApp(rl)

		for i := 0; i < 3; i++ {
			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		}
	})

	t.Run("window resets", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{
			Max:          1,
			Window:       50 * time.Millisecond,
			KeyGenerator: func(c *fiber.Ctx) string { return "someone" },
		})
		defer rl.Stop()
		app := limitedApp(rl)

		resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, 200, resp.StatusCode)
		resp, _ = app.Test(httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, 429, resp.StatusCode)

		time.Sleep(80 * time.Millisecond)
		resp, _ = app.Test(httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, 200, resp.StatusCode)
	})
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	config := DefaultRateLimiterConfig()

	assert.Equal(t, 30, config.Max)
	assert.Equal(t, time.Minute, config.Window)
	assert.NotNil(t, config.KeyGenerator)
}

func TestDefaultKeyGenerator_UsesIdentity(t *testing.T) {
	identityID := uuid.New()
	rl := NewRateLimiter(RateLimiterConfig{Max: 1, Window: time.Minute})
	defer rl.Stop()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(testLogger())})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalIdentityID, identityID)
		return c.Next()
	})
	app.Use(rl.Handler())
	app.Get("/test", func(c *fiber.Ctx) error { return c.SendString("OK") })

	resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, 200, resp.StatusCode)
	resp, _ = app.Test(httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, 429, resp.StatusCode)
}

func TestRateLimiter_Stop(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())

	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}

func TestRateLimiter_SkipNeverRefuses(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Max:          1,
		Window:       time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return "member" },
		Skip:         func(c *fiber.Ctx) bool { return c.Path() == "/v1/alerts/sos" },
	})
	defer rl.Stop()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(testLogger())})
	app.Use(rl.Handler())
	app.Get("/v1/alerts", func(c *fiber.Ctx) error { return c.SendString("feed") })
	app.Post("/v1/alerts/sos", func(c *fiber.Ctx) error { return c.SendStatus(201) })

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/alerts", nil))
	assert.Equal(t, 200, resp.StatusCode)
	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/alerts", nil))
	assert.Equal(t, 429, resp.StatusCode)

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/v1/alerts/sos", nil))
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)
	}
}

func TestRateLimiter_WindowBoundary(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Max: 2, Window: time.Minute, KeyGenerator: func(c *fiber.Ctx) string { return "k" }})
	defer rl.Stop()

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, rl.take("k", start).allowed)
	assert.True(t, rl.take("k", start.Add(30*time.Second)).allowed)

	q := rl.take("k", start.Add(59*time.Second))
	assert.False(t, q.allowed)
	assert.Equal(t, 0, q.remaining)
	assert.Equal(t, start.Add(time.Minute), q.resetsAt)

	// A new window opens exactly at the reset instant
	q = rl.take("k", start.Add(time.Minute))
	assert.True(t, q.allowed)
	assert.Equal(t, 1, q.remaining)
}

