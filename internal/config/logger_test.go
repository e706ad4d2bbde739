package config

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Production(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{Environment: "production"})

	logger.Debug("dropped")
	logger.Info("alert dispatched", "recipients", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "production logs one JSON record")
	assert.Equal(t, "alert dispatched", entry["msg"])
	assert.Equal(t, "campusguard", entry["service"])
	assert.Equal(t, "production", entry["env"])
	assert.EqualValues(t, 3, entry["recipients"])
	assert.NotContains(t, entry, "source")
}

func TestNewLogger_Development(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{Environment: "development"})

	logger.Debug("comparing descriptors")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "service=campusguard")
	assert.Contains(t, out, "env=development")
	assert.Contains(t, out, "source=")
}

func TestNewLogger_LevelOverride(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		debugKept bool
		infoKept  bool
	}{
		{name: "production debug", cfg: &Config{Environment: "production", LogLevel: "debug"}, debugKept: true, infoKept: true},
		{name: "staging warn", cfg: &Config{Environment: "staging", LogLevel: "WARN"}, debugKept: false, infoKept: false},
		{name: "unparseable keeps default", cfg: &Config{Environment: "staging", LogLevel: "loud"}, debugKept: true, infoKept: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.cfg)

			logger.Debug("debug line")
			assert.Equal(t, tt.debugKept, bytes.Contains(buf.Bytes(), []byte("debug line")))

			logger.Info("info line")
			assert.Equal(t, tt.infoKept, bytes.Contains(buf.Bytes(), []byte("info line")))
		})
	}
}
