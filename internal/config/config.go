package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is empty")

// DatabaseConfig holds PostgreSQL connection and pool settings.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	SlowQuery       time.Duration `yaml:"slow_query"`
}

// MinIOConfig holds object storage settings used by the loaders and the
// tile precacher. An empty Endpoint disables object storage.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Config is the application configuration. Values come from an optional
// YAML file (CONFIG_FILE) and are overridden by environment variables.
type Config struct {
	Port              string         `yaml:"port"`
	Database          DatabaseConfig `yaml:"database"`
	CORSOrigins       []string       `yaml:"cors_origins"`
	TileMaxAge        time.Duration  `yaml:"tile_max_age"`
	SimplifyTolerance float64        `yaml:"simplify_tolerance"`
	RateLimitRPS      float64        `yaml:"rate_limit_rps"`
	RateLimitBurst    int            `yaml:"rate_limit_burst"`
	LogLevel          string         `yaml:"log_level"`
	LogFormat         string         `yaml:"log_format"`
	MinIO             MinIOConfig    `yaml:"minio"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port: "5050",
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    20,
			ConnMaxLifetime: 30 * time.Minute,
			SlowQuery:       100 * time.Millisecond,
		},
		CORSOrigins: []string{
			"http://localhost:5173",
			"http://localhost:5174",
		},
		TileMaxAge:     24 * time.Hour,
		RateLimitBurst: 20,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load builds the configuration.
//
// Environment variables:
//   - CONFIG_FILE: optional YAML file applied on top of the defaults
//   - PORT, DATABASE_URL, DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
//     DB_CONN_MAX_LIFETIME, DB_SLOW_QUERY
//   - CORS_ORIGINS: comma separated allow-list
//   - TILE_MAX_AGE, SIMPLIFY_TOLERANCE, RATE_LIMIT_RPS, RATE_LIMIT_BURST
//   - LOG_LEVEL, LOG_FORMAT (json or console)
//   - MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY, MINIO_BUCKET, MINIO_USE_SSL
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)
	c.Database.SlowQuery = getEnvDuration("DB_SLOW_QUERY", c.Database.SlowQuery)

	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		c.CORSOrigins = splitList(v)
	}

	c.TileMaxAge = getEnvDuration("TILE_MAX_AGE", c.TileMaxAge)
	c.SimplifyTolerance = getEnvFloat("SIMPLIFY_TOLERANCE", c.SimplifyTolerance)
	c.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", c.MinIO.Endpoint)
	c.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", c.MinIO.AccessKey)
	c.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", c.MinIO.SecretKey)
	c.MinIO.Bucket = getEnv("MINIO_BUCKET", c.MinIO.Bucket)
	c.MinIO.UseSSL = getEnvBool("MINIO_USE_SSL", c.MinIO.UseSSL)
}

// Validate checks the settings every database-backed command needs.
func (c Config) Validate() error {
	if c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	if c.SimplifyTolerance < 0 {
		return fmt.Errorf("simplify tolerance must not be negative: %v", c.SimplifyTolerance)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("30m") or plain seconds ("86400").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
