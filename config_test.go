package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := LoadConfig(t.TempDir(), false)
	require.NoError(t, err)
	assert.Equal(t, 5000, c.Port)
	assert.False(t, c.IsProd())
	assert.Equal(t, "warbler", c.Database.Name)
	assert.Equal(t, "host=localhost port=5432 user=postgres dbname=warbler sslmode=disable", c.Database.ConnectionInfo())
}

func TestLoadConfig_RequiredFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir(), true)
	assert.Error(t, err)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"port": 8080,
		"env": "prod",
		"pepper": "pepper",
		"csrf_key": "abcdefghijklmnopqrstuvwxyz012345",
		"database": {"host": "db", "password": "secret", "name": "warbler_prod"}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(content), 0o600))

	c, err := LoadConfig(dir, true)
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Port)
	assert.True(t, c.IsProd())
	assert.Equal(t, "pepper", c.Pepper)
	// Keys missing from the file keep their defaults.
	assert.Equal(t, "secret-hmac-key", c.HMACKey)
	assert.Equal(t, "host=db port=5432 user=postgres password=secret dbname=warbler_prod sslmode=disable", c.Database.ConnectionInfo())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("WARBLER_PORT", "6000")
	t.Setenv("WARBLER_DATABASE_HOST", "postgres.internal")

	c, err := LoadConfig(t.TempDir(), false)
	require.NoError(t, err)
	assert.Equal(t, 6000, c.Port)
	assert.Equal(t, "postgres.internal", c.Database.Host)
}

func TestLoadConfig_CSRFKeyLength(t *testing.T) {
	t.Setenv("WARBLER_CSRF_KEY", "short")

	_, err := LoadConfig(t.TempDir(), false)
	assert.Error(t, err)
}
