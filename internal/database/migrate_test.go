package database

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var migrationName = regexp.MustCompile(`^(\d{6})_[a-z0-9_]+\.(up|down)\.sql$`)

func TestMigrations_Paired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		m := migrationName.FindStringSubmatch(e.Name())
		require.NotNil(t, m, "unexpected file %s", e.Name())
		if m[2] == "up" {
			ups[m[1]] = true
		} else {
			downs[m[1]] = true
		}
	}

	assert.NotEmpty(t, ups)
	assert.Equal(t, ups, downs, "every up migration has a down")
}

func TestLatestVersion(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	latest, err := LatestVersion()
	require.NoError(t, err)

	last := entries[len(entries)-1].Name()
	assert.True(t, strings.HasPrefix(last, fmt.Sprintf("%06d_", latest)), "latest %d, last file %s", latest, last)
}

func TestStatus_Pending(t *testing.T) {
	assert.True(t, Status{Version: 3, Latest: 5}.Pending())
	assert.False(t, Status{Version: 5, Latest: 5}.Pending())
}

func TestMigrateLogger(t *testing.T) {
	var buf bytes.Buffer
	l := migrateLogger{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	l.Printf("Start buffering %d/u %s\n", 3, "create_alerts")

	assert.False(t, l.Verbose())
	assert.Contains(t, buf.String(), `msg="Start buffering 3/u create_alerts"`)
}
