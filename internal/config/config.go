package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Provider
	ProviderType string `envconfig:"PROVIDER_TYPE" default:"deepface"`
	DeepFaceURL  string `envconfig:"DEEPFACE_URL" default:"http://localhost:5000"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Security
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"campusguard"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"12h"`

	// Verification
	MatchThreshold     float64       `envconfig:"MATCH_THRESHOLD" default:"0.6"`
	SuspicionWindow    time.Duration `envconfig:"SUSPICION_WINDOW" default:"10m"`
	SuspicionThreshold int           `envconfig:"SUSPICION_THRESHOLD" default:"3"`
	AttemptRetention   time.Duration `envconfig:"ATTEMPT_RETENTION" default:"24h"`
	RetentionInterval  time.Duration `envconfig:"RETENTION_INTERVAL" default:"15m"`

	// Alerts
	FeedLimit     int    `envconfig:"FEED_LIMIT" default:"50"`
	FeedScanLimit int    `envconfig:"FEED_SCAN_LIMIT" default:"500"`
	RedisURL      string `envconfig:"REDIS_URL"`
	AlertChannel  string `envconfig:"ALERT_CHANNEL" default:"campusguard:alerts"`

	// Rate limiting
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"30"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// Verification throttle, shared by every instance through the database
	VerifyRateLimit  int           `envconfig:"VERIFY_RATE_LIMIT" default:"10"`
	VerifyRateWindow time.Duration `envconfig:"VERIFY_RATE_WINDOW" default:"1m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values that would make verification or retention meaningless
func (c *Config) Validate() error {
	if c.MatchThreshold <= 0 {
		return fmt.Errorf("MATCH_THRESHOLD must be positive, got %v", c.MatchThreshold)
	}
	if c.SuspicionWindow <= 0 {
		return fmt.Errorf("SUSPICION_WINDOW must be positive, got %v", c.SuspicionWindow)
	}
	if c.SuspicionThreshold < 1 {
		return fmt.Errorf("SUSPICION_THRESHOLD must be at least 1, got %d", c.SuspicionThreshold)
	}
	if _, ok := parseLevel(c.LogLevel); c.LogLevel != "" && !ok {
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.FeedLimit < 1 || c.FeedScanLimit < c.FeedLimit {
		return fmt.Errorf("FEED_SCAN_LIMIT (%d) must be >= FEED_LIMIT (%d) >= 1", c.FeedScanLimit, c.FeedLimit)
	}
	return nil
}

// Retention returns how long attempt records are kept. Never shorter than
// the suspicion window, otherwise pruning would change analysis results.
func (c *Config) Retention() time.Duration {
	if c.AttemptRetention < c.SuspicionWindow {
		return c.SuspicionWindow
	}
	return c.AttemptRetention
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
