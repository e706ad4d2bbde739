package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const serviceName = "campusguard"

// NewLogger builds the process logger. Production writes JSON, other
// environments write text with source locations. LOG_LEVEL overrides the
// environment's default level (info in production, debug elsewhere).
// Every record carries the service and environment.
func NewLogger(cfg *Config) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: cfg.IsDevelopment(),
		Level:     slog.LevelDebug,
	}
	if cfg.IsProduction() {
		opts.Level = slog.LevelInfo
	}
	if level, ok := parseLevel(cfg.LogLevel); ok {
		opts.Level = level
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(
		slog.String("service", serviceName),
		slog.String("env", cfg.Environment),
	)
}

func parseLevel(raw string) (slog.Level, bool) {
	if strings.TrimSpace(raw) == "" {
		return 0, false
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return 0, false
	}
	return level, true
}
