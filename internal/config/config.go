package config

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	pkgconfig "github.com/SudaisX/DB-Project/pkg/config"
	"github.com/SudaisX/DB-Project/pkg/database"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the storefront server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"5000"`

	// PostgreSQL
	PostgresHost         string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort         int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser         string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass         string `env:"POSTGRES_PASSWORD" envDefault:"storefront"`
	PostgresDB           string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSL          string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	DBMaxConns           int32  `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns           int32  `env:"DB_MIN_CONNS" envDefault:"2"`
	SlowQueryThresholdMs int    `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Redis catalog cache
	CacheEnabled  bool          `env:"CACHE_ENABLED" envDefault:"true"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`

	// Kafka domain events
	EventsEnabled bool     `env:"EVENTS_ENABLED" envDefault:"true"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Auth
	JWTSecret  string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTExpiry  time.Duration `env:"JWT_EXPIRY" envDefault:"720h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	// Per-IP throttling of register and login. A zero rate disables it.
	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Profiling
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32" envSeparator:","`
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom is Load reading from vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, vars); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("invalid pool size: min %d, max %d", c.DBMinConns, c.DBMaxConns)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive, got %s", c.JWTExpiry)
	}
	if c.CacheEnabled && c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive when the cache is enabled, got %s", c.CacheTTL)
	}
	if c.AuthRateLimitRPS < 0 || (c.AuthRateLimitRPS > 0 && c.AuthRateLimitBurst < 1) {
		return fmt.Errorf("invalid auth rate limit: %v rps, burst %d", c.AuthRateLimitRPS, c.AuthRateLimitBurst)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1], got %v", c.OTELSampleRate)
	}

	// Outside development the secret must be set explicitly and be long enough for HS256.
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}
	return nil
}

// Postgres returns the pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	pg.MaxConns = c.DBMaxConns
	pg.MinConns = c.DBMinConns
	return pg
}

// Redis returns the cache client configuration.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Host = c.RedisHost
	rc.Port = c.RedisPort
	rc.Password = c.RedisPassword
	rc.DB = c.RedisDB
	return rc
}
