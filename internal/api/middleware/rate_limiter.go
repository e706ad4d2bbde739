package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

// RateLimiterConfig bounds requests per caller on this instance
type RateLimiterConfig struct {
	Max    int
	Window time.Duration
	// KeyGenerator identifies the caller. An empty key is not limited.
	// Defaults to the authenticated identity.
	KeyGenerator func(c *fiber.Ctx) string
	// Skip exempts requests that must never be refused, such as SOS
	Skip func(c *fiber.Ctx) bool
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:          30,
		Window:       time.Minute,
		KeyGenerator: identityKey,
	}
}

func identityKey(c *fiber.Ctx) string {
	id, err := GetIdentityID(c)
	if err != nil {
		return ""
	}
	return id.String()
}

// window is one caller's fixed window
type window struct {
	count    int
	resetsAt time.Time
	lastSeen time.Time
}

// quota is the caller's position after counting a request
type quota struct {
	allowed   bool
	remaining int
	resetsAt  time.Time
}

// RateLimiter is a per-caller fixed-window limiter held in memory. Stale
// windows are swept in the background until Stop.
type RateLimiter struct {
	config   RateLimiterConfig
	now      func() time.Time
	mu       sync.Mutex
	windows  map[string]*window
	done     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	defaults := DefaultRateLimiterConfig()
	if config.Max <= 0 {
		config.Max = defaults.Max
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = defaults.KeyGenerator
	}

	rl := &RateLimiter{
		config:  config,
		now:     time.Now,
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}
	go rl.sweep()

	return rl
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl.config.Skip != nil && rl.config.Skip(c) {
			return c.Next()
		}
		key := rl.config.KeyGenerator(c)
		if key == "" {
			// Unauthenticated requests are refused by Auth
			return c.Next()
		}

		now := rl.now()
		q := rl.take(key, now)

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(q.remaining))
		c.Set("X-RateLimit-Reset", q.resetsAt.Format(time.RFC3339))

		if !q.allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(q.resetsAt.Sub(now).Seconds())+1))
			return domain.ErrRateLimitExceeded
		}
		return c.Next()
	}
}

func (rl *RateLimiter) take(key string, now time.Time) quota {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetsAt) {
		w = &window{resetsAt: now.Add(rl.config.Window)}
		rl.windows[key] = w
	}
	w.count++
	w.lastSeen = now

	remaining := rl.config.Max - w.count
	if remaining < 0 {
		remaining = 0
	}
	return quota{
		allowed:   w.count <= rl.config.Max,
		remaining: remaining,
		resetsAt:  w.resetsAt,
	}
}

// sweep drops windows idle for two window lengths
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			now := rl.now()
			rl.mu.Lock()
			for key, w := range rl.windows {
				if now.Sub(w.lastSeen) > 2*rl.config.Window {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
