package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.Equal(t, 720*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.CacheEnabled)
	assert.False(t, cfg.OTELEnabled)
	assert.Equal(t, 5.0, cfg.AuthRateLimitRPS)
	assert.Equal(t, 10, cfg.AuthRateLimitBurst)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"HTTP_PORT":     "8080",
		"KAFKA_BROKERS": "k1:9092,k2:9092",
		"JWT_EXPIRY":    "24h",
		"BCRYPT_COST":   "12",
		"POSTGRES_HOST": "db",
		"REDIS_HOST":    "cache",
		"REDIS_PORT":    "6380",
	})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 12, cfg.BcryptCost)

	pg := cfg.Postgres()
	assert.Equal(t, "db", pg.Host)
	assert.Equal(t, int32(20), pg.MaxConns)
	assert.Equal(t, "cache:6380", cfg.Redis().Addr())
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		msg  string
	}{
		{"port out of range", map[string]string{"HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"bcrypt cost too low", map[string]string{"BCRYPT_COST": "2"}, "BCRYPT_COST"},
		{"min above max conns", map[string]string{"DB_MIN_CONNS": "30", "DB_MAX_CONNS": "5"}, "invalid pool size"},
		{"zero cache ttl", map[string]string{"CACHE_TTL": "0s"}, "CACHE_TTL"},
		{"negative auth rate", map[string]string{"AUTH_RATE_LIMIT_RPS": "-1"}, "invalid auth rate limit"},
		{"zero auth burst", map[string]string{"AUTH_RATE_LIMIT_BURST": "0"}, "invalid auth rate limit"},
		{"sample rate above one", map[string]string{"OTEL_SAMPLE_RATE": "1.5"}, "OTEL_SAMPLE_RATE"},
		{"default secret in production", map[string]string{"ENVIRONMENT": "production"}, "JWT_SECRET must be explicitly set"},
		{"short secret in production", map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "short-but-custom"}, "at least 32 characters"},
		{"unparsable duration", map[string]string{"JWT_EXPIRY": "soon"}, "load storefront config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(tt.vars)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadFrom_ProductionWithStrongSecret(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": strongSecret})
	require.NoError(t, err)
	assert.Equal(t, strongSecret, cfg.JWTSecret)
}

func TestLoad_ReadsProcessEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}
