package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/storefront/services/storefront/internal/localstore"
	"github.com/pawmart/storefront/services/storefront/internal/syncer"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Profile)
	assert.Equal(t, "http://localhost:8080", cfg.API.URL)
	assert.Equal(t, localstore.BackendFile, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(home, ".local/share/pawmart", "default"), cfg.Store.Dir)
	assert.Equal(t, filepath.Join(cfg.Store.Dir, "storefront.db"), cfg.Store.SQLitePath)
	assert.Equal(t, syncer.LogoutKeep, cfg.LogoutPolicy())
	assert.Equal(t, 10*time.Second, time.Duration(cfg.API.Timeout))
	assert.Zero(t, cfg.API.MaxRetries, "remote calls are single-attempt by default")
	assert.Zero(t, cfg.Sync.RetryAttempts)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, `
profile = "work"
log_level = "debug"

[api]
url = "https://api.pawmart.test/"
timeout = "3s"

[store]
backend = "SQLite"
dir = "`+filepath.ToSlash(dir)+`"

[sync]
interval = "5m"
logout_policy = "clear"
retry_attempts = 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "work", cfg.Profile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://api.pawmart.test", cfg.API.URL)
	assert.Equal(t, 3*time.Second, time.Duration(cfg.API.Timeout))
	assert.Equal(t, localstore.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "work", "storefront.db"), cfg.Store.SQLitePath)
	assert.Equal(t, 5*time.Minute, time.Duration(cfg.Sync.Interval))
	assert.Equal(t, syncer.LogoutClear, cfg.LogoutPolicy())
	assert.Equal(t, 2, cfg.Sync.RetryAttempts)
	// Unset keys keep their defaults.
	assert.Equal(t, 64, cfg.Sync.CommandQueue)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, `
[api]
url = "https://from-file.test"

[store]
backend = "file"
dir = "`+filepath.ToSlash(t.TempDir())+`"
`)
	t.Setenv("STOREFRONT_API_URL", "https://from-env.test")
	t.Setenv("STOREFRONT_STORE_BACKEND", "memory")
	t.Setenv("STOREFRONT_SYNC_INTERVAL", "90s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.test", cfg.API.URL)
	assert.Equal(t, localstore.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 90*time.Second, time.Duration(cfg.Sync.Interval))
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeFile(t, `profile = `)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_InvalidDurationInEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STOREFRONT_API_TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STOREFRONT_")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad url", map[string]string{"STOREFRONT_API_URL": "ftp://x"}, "api.url"},
		{"unknown backend", map[string]string{"STOREFRONT_STORE_BACKEND": "etcd"}, "store.backend"},
		{"redis without url", map[string]string{"STOREFRONT_STORE_BACKEND": "redis"}, "store.redis_url"},
		{"bad policy", map[string]string{"STOREFRONT_SYNC_LOGOUT_POLICY": "wipe"}, "sync.logout_policy"},
		{"zero queue", map[string]string{"STOREFRONT_SYNC_COMMAND_QUEUE": "0"}, "sync.command_queue"},
		{"profile with slash", map[string]string{"STOREFRONT_PROFILE": "a/b"}, "profile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "storefront.toml")

	want := Default()
	want.Profile = "saved"
	want.Sync.LogoutPolicy = "clear"
	want.Sync.Interval = Duration(time.Minute)
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved", got.Profile)
	assert.Equal(t, syncer.LogoutClear, got.LogoutPolicy())
	assert.Equal(t, time.Minute, time.Duration(got.Sync.Interval))
}

func TestStoreOptions(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = localstore.BackendRedis
	cfg.Store.RedisURL = "redis://localhost:6379/0"
	cfg.Store.RedisTTL = Duration(time.Hour)

	opts := cfg.StoreOptions()
	assert.Equal(t, localstore.BackendRedis, opts.Backend)
	assert.Equal(t, "redis://localhost:6379/0", opts.RedisURL)
	assert.Equal(t, time.Hour, opts.RedisTTL)
	assert.Equal(t, "default", opts.Profile)
}

func TestLoad_OptionsWinOverEnvironment(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("STOREFRONT_PROFILE", "from-env")

	cfg, err := Load("", WithProfile("from-flag"), WithLogLevel("debug"))
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.Profile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join(home, ".local/share/pawmart", "from-flag"), cfg.Store.Dir)
}
