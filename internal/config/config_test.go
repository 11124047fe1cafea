package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 480*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.Equal(t, time.UTC, cfg.Store.Location)
	assert.Equal(t, "uploads", cfg.Blob.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "litigation_test", cfg.Database.TestDBName)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TOKEN_TTL_MINUTES", "60")
	t.Setenv("STORE_TIMEOUT_SECONDS", "2")
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("LOG_DEV", "1")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 2*time.Second, cfg.Store.Timeout)
	assert.Equal(t, "Asia/Kolkata", cfg.Store.Location.String())
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.True(t, cfg.Log.Dev)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, Username: "u", Password: "p", DBName: "cases", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=cases sslmode=disable", db.GetDSN())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LT_TEST_ENV_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LT_TEST_ENV_VALUE") })

	require.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("LT_TEST_ENV_VALUE"))
}
