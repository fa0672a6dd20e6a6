package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	database, err := InitDB(filepath.Join(t.TempDir(), "bracket.db"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(database.DB))
	// second run is a no-op
	require.NoError(t, RunMigrations(database.DB))

	var tables []string
	err = database.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	require.NoError(t, err)

	for _, name := range []string{"admins", "tournaments", "registrations", "matches", "progressions", "progression_rounds", "audit_log", "sessions"} {
		assert.Contains(t, tables, name)
	}

	var system int
	require.NoError(t, database.Get(&system, "SELECT COUNT(*) FROM admins WHERE username = 'system'"))
	assert.Equal(t, 1, system)
}
