package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
		"DB_CONN_MAX_LIFETIME", "DB_SLOW_QUERY", "CORS_ORIGINS", "TILE_MAX_AGE",
		"SIMPLIFY_TOLERANCE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL",
		"LOG_FORMAT", "MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY",
		"MINIO_BUCKET", "MINIO_USE_SSL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5050", cfg.Port)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 24*time.Hour, cfg.TileMaxAge)
	assert.Zero(t, cfg.SimplifyTolerance)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingDatabaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/maps")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TILE_MAX_AGE", "2h")
	t.Setenv("SIMPLIFY_TOLERANCE", "0.001")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, 90*time.Second, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 2*time.Hour, cfg.TileMaxAge)
	assert.InDelta(t, 0.001, cfg.SimplifyTolerance, 1e-12)
	assert.InDelta(t, 5, cfg.RateLimitRPS, 1e-12)
	assert.Equal(t, 20, cfg.RateLimitBurst, "invalid ints keep the default")
	assert.True(t, cfg.MinIO.UseSSL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `port: "6060"
database:
  url: postgres://file@localhost/maps
  max_idle_conns: 3
cors_origins:
  - https://maps.example
minio:
  bucket: shapes
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port, "env wins over file")
	assert.Equal(t, "postgres://file@localhost/maps", cfg.Database.URL)
	assert.Equal(t, 3, cfg.Database.MaxIdleConns)
	assert.Equal(t, "info", cfg.LogLevel, "unset file keys keep defaults")
	assert.Equal(t, []string{"https://maps.example"}, cfg.CORSOrigins)
	assert.Equal(t, "shapes", cfg.MinIO.Bucket)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_NegativeTolerance(t *testing.T) {
	cfg := Default()
	cfg.Database.URL = "postgres://localhost/maps"
	cfg.SimplifyTolerance = -1
	assert.Error(t, cfg.Validate())
}
