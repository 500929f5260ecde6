package localstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pawmart/storefront/pkg/database"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Dir holds the file backend's JSON files and the default sqlite path.
	Dir        string
	SQLitePath string
	RedisURL   string
	RedisTTL   time.Duration
	// Profile namespaces redis keys so several shoppers can share a server.
	Profile string
}

// Open builds the store named by cfg.Backend.
func Open(ctx context.Context, cfg Config, l *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		l.Debug("using in-memory store")
		return NewMemory(), nil

	case "", BackendFile:
		s, err := NewFile(cfg.Dir)
		if err != nil {
			return nil, err
		}
		l.Debug("using file store", slog.String("dir", cfg.Dir))
		return s, nil

	case BackendRedis:
		client, err := database.NewRedisClient(ctx, database.RedisConfig{URL: cfg.RedisURL})
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		l.Debug("using redis store", slog.String("prefix", RedisPrefix(cfg.Profile)))
		return NewRedis(client, RedisPrefix(cfg.Profile), cfg.RedisTTL), nil

	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.Dir, "storefront.db")
		}
		s, err := NewSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		l.Debug("using sqlite store", slog.String("path", path))
		return s, nil

	default:
		return nil, fmt.Errorf("localstore: unknown backend %q", cfg.Backend)
	}
}
