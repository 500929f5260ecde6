// Package config loads the storefront client configuration. Values come from
// built-in defaults, then a TOML file, then STOREFRONT_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	pkgconfig "github.com/pawmart/storefront/pkg/config"
	"github.com/pawmart/storefront/services/storefront/internal/localstore"
	"github.com/pawmart/storefront/services/storefront/internal/syncer"
)

const (
	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "STOREFRONT_"

	defaultPath = "~/.config/pawmart/storefront.toml"
	defaultDir  = "~/.local/share/pawmart"
)

// Duration is a time.Duration that reads and writes "1m30s" style strings in
// both TOML and the environment.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the storefront client configuration. No field carries an
// envDefault tag so that environment overrides only patch what the file set.
type Config struct {
	Profile  string `toml:"profile" env:"PROFILE"`
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`

	API   APIConfig   `toml:"api" envPrefix:"API_"`
	Store StoreConfig `toml:"store" envPrefix:"STORE_"`
	Sync  SyncConfig  `toml:"sync" envPrefix:"SYNC_"`
}

// APIConfig points at the wishlist service.
type APIConfig struct {
	URL        string   `toml:"url" env:"URL"`
	Timeout    Duration `toml:"timeout" env:"TIMEOUT"`
	// MaxRetries re-sends a request on 5xx and network errors. Zero keeps
	// remote calls single-attempt; prefer sync.retry_attempts.
	MaxRetries int      `toml:"max_retries" env:"MAX_RETRIES"`
	RetryDelay Duration `toml:"retry_delay" env:"RETRY_DELAY"`
	// BreakerMaxRequests is how many trial requests the breaker lets through while
	// half-open.
	BreakerMaxRequests uint32   `toml:"breaker_max_requests" env:"BREAKER_MAX_REQUESTS"`
	BreakerTimeout     Duration `toml:"breaker_timeout" env:"BREAKER_TIMEOUT"`
}

// StoreConfig selects the local persistence backend.
type StoreConfig struct {
	Backend    string   `toml:"backend" env:"BACKEND"`
	Dir        string   `toml:"dir" env:"DIR"`
	SQLitePath string   `toml:"sqlite_path" env:"SQLITE_PATH"`
	RedisURL   string   `toml:"redis_url" env:"REDIS_URL"`
	RedisTTL   Duration `toml:"redis_ttl" env:"REDIS_TTL"`
}

// SyncConfig tunes wishlist reconciliation and the remote command queue.
type SyncConfig struct {
	Interval       Duration `toml:"interval" env:"INTERVAL"`
	Timeout        Duration `toml:"timeout" env:"TIMEOUT"`
	LogoutPolicy   string   `toml:"logout_policy" env:"LOGOUT_POLICY"`
	CommandQueue   int      `toml:"command_queue" env:"COMMAND_QUEUE"`
	CommandTimeout Duration `toml:"command_timeout" env:"COMMAND_TIMEOUT"`
	// RetryAttempts is the number of extra attempts for a failed remote
	// command. Zero keeps the single-attempt behaviour.
	RetryAttempts int `toml:"retry_attempts" env:"RETRY_ATTEMPTS"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Profile:  "default",
		LogLevel: "warn",
		API: APIConfig{
			URL:                "http://localhost:8080",
			Timeout:            Duration(10 * time.Second),
			MaxRetries:         0,
			RetryDelay:         Duration(200 * time.Millisecond),
			BreakerMaxRequests: 3,
			BreakerTimeout:     Duration(30 * time.Second),
		},
		Store: StoreConfig{
			Backend: localstore.BackendFile,
			Dir:     defaultDir,
		},
		Sync: SyncConfig{
			Timeout:        Duration(30 * time.Second),
			LogoutPolicy:   string(syncer.LogoutKeep),
			CommandQueue:   64,
			CommandTimeout: Duration(15 * time.Second),
		},
	}
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return defaultPath
}

// ResolvePath expands ~ and makes path absolute. An empty path resolves
// DefaultPath.
func ResolvePath(path string) (string, error) {
	return expandPath(orDefault(path, defaultPath))
}

// Option patches the configuration after the file and environment are
// applied, e.g. from command-line flags.
type Option func(*Config)

// WithProfile selects a profile.
func WithProfile(profile string) Option {
	return func(c *Config) { c.Profile = profile }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) Option {
	return func(c *Config) { c.LogLevel = level }
}

// Load builds the configuration. An empty path means DefaultPath; a missing
// file leaves the defaults in place. A file that exists but does not parse
// is an error.
func Load(path string, opts ...Option) (Config, error) {
	cfg := Default()

	resolved, err := ResolvePath(path)
	if err != nil {
		return cfg, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", resolved, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := pkgconfig.Override(&cfg, EnvPrefix); err != nil {
		return cfg, err
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.normalize(); err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as TOML, creating parent directories.
func Save(path string, cfg Config) error {
	resolved, err := ResolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LogoutPolicy returns the parsed logout policy. Load has already validated
// it.
func (c Config) LogoutPolicy() syncer.LogoutPolicy {
	p, _ := syncer.ParseLogoutPolicy(c.Sync.LogoutPolicy)
	return p
}

// StoreOptions converts the store section for localstore.Open.
func (c Config) StoreOptions() localstore.Config {
	return localstore.Config{
		Backend:    c.Store.Backend,
		Dir:        c.Store.Dir,
		SQLitePath: c.Store.SQLitePath,
		RedisURL:   c.Store.RedisURL,
		RedisTTL:   time.Duration(c.Store.RedisTTL),
		Profile:    c.Profile,
	}
}

func (c *Config) normalize() error {
	c.Profile = strings.TrimSpace(c.Profile)
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.API.URL = strings.TrimRight(strings.TrimSpace(c.API.URL), "/")

	if c.Store.Dir != "" {
		dir, err := expandPath(c.Store.Dir)
		if err != nil {
			return fmt.Errorf("resolve store dir: %w", err)
		}
		// Profiles never share a directory.
		c.Store.Dir = filepath.Join(dir, c.Profile)
	}
	if c.Store.SQLitePath == "" && c.Store.Dir != "" {
		c.Store.SQLitePath = filepath.Join(c.Store.Dir, "storefront.db")
	} else if c.Store.SQLitePath != "" {
		p, err := expandPath(c.Store.SQLitePath)
		if err != nil {
			return fmt.Errorf("resolve sqlite path: %w", err)
		}
		c.Store.SQLitePath = p
	}
	return nil
}

func (c *Config) validate() error {
	if c.Profile == "" {
		return fmt.Errorf("profile is required")
	}
	if strings.ContainsAny(c.Profile, `/\`) || c.Profile == "." || c.Profile == ".." {
		return fmt.Errorf("invalid profile name %q", c.Profile)
	}

	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.url must be an absolute http(s) URL, got %q", c.API.URL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must not be negative")
	}

	switch c.Store.Backend {
	case localstore.BackendMemory:
	case localstore.BackendFile:
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir is required for the file backend")
		}
	case localstore.BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite backend")
		}
	case localstore.BackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}

	if _, err := syncer.ParseLogoutPolicy(c.Sync.LogoutPolicy); err != nil {
		return fmt.Errorf("sync.logout_policy: %w", err)
	}
	if c.Sync.Interval < 0 {
		return fmt.Errorf("sync.interval must not be negative")
	}
	if c.Sync.CommandQueue < 1 {
		return fmt.Errorf("sync.command_queue must be at least 1")
	}
	if c.Sync.RetryAttempts < 0 {
		return fmt.Errorf("sync.retry_attempts must not be negative")
	}
	return nil
}

func orDefault(path, def string) string {
	if strings.TrimSpace(path) == "" {
		return def
	}
	return path
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
