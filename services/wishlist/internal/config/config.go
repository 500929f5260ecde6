package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/pawmart/storefront/pkg/config"
	"github.com/pawmart/storefront/pkg/database"
)

const insecureDefaultSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the wishlist service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort int `env:"WISHLIST_HTTP_PORT" envDefault:"8010"`

	// PostgreSQL. DatabaseURL wins over the discrete fields when set.
	DatabaseURL          string `env:"WISHLIST_DATABASE_URL"`
	PostgresHost         string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort         int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser         string `env:"POSTGRES_USER" envDefault:"pawmart"`
	PostgresPass         string `env:"POSTGRES_PASSWORD" envDefault:"pawmart"`
	PostgresDB           string `env:"WISHLIST_DB_NAME" envDefault:"wishlist_db"`
	PostgresSSL          string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns           int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns           int32  `env:"DB_MIN_CONNS" envDefault:"2"`
	SlowQueryThresholdMs int    `env:"DB_SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Redis backs the shared event idempotency store. Empty keeps it in memory.
	RedisURL string `env:"WISHLIST_REDIS_URL"`

	// Kafka
	KafkaEnabled  bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	ConsumerGroup string   `env:"WISHLIST_CONSUMER_GROUP" envDefault:"wishlist-products"`

	// JWT
	JWTSecret string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTIssuer string `env:"JWT_ISSUER"`

	// Mutation rate limit per authenticated user.
	RateLimitRPS   float64 `env:"WISHLIST_RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"WISHLIST_RATE_LIMIT_BURST" envDefault:"20"`

	// MaxSyncItems bounds POST /api/wishlist/sync.
	MaxSyncItems int `env:"WISHLIST_MAX_SYNC_ITEMS" envDefault:"200"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load wishlist config: %w", err)
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
	if c.MaxSyncItems < 1 {
		return fmt.Errorf("WISHLIST_MAX_SYNC_ITEMS must be positive, got %d", c.MaxSyncItems)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit must be positive (rps=%v burst=%d)", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.Environment != "development" {
		if c.JWTSecret == insecureDefaultSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}
	return nil
}

// Postgres returns the connection settings for database.NewPostgresPool.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.URL = c.DatabaseURL
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
