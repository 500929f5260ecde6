package localstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    string `json:"id"`
	Price int64  `json:"price"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// Backend contract, run against every implementation
// ---------------------------------------------------------------------------

func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	file, err := NewFile(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	lite, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemory(),
		"file":   file,
		"redis":  NewRedis(client, RedisPrefix("test"), 0),
		"sqlite": lite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStore_Contract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Load(ctx, KeyCart)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Save(ctx, KeyCart, []byte(`[1]`)))
			got, err := s.Load(ctx, KeyCart)
			require.NoError(t, err)
			assert.Equal(t, `[1]`, string(got))

			// Last write wins.
			require.NoError(t, s.Save(ctx, KeyCart, []byte(`[2]`)))
			got, err = s.Load(ctx, KeyCart)
			require.NoError(t, err)
			assert.Equal(t, `[2]`, string(got))

			// Keys are independent.
			_, err = s.Load(ctx, KeyWishlist)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Delete(ctx, KeyCart))
			_, err = s.Load(ctx, KeyCart)
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing key is not an error.
			require.NoError(t, s.Delete(ctx, KeyCart))

			assert.Error(t, s.Save(ctx, "../escape", []byte(`x`)))
		})
	}
}

func TestMemory_ClosedAndCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte(`[1]`)
	require.NoError(t, m.Save(ctx, KeyCart, buf))
	buf[1] = '9'

	got, err := m.Load(ctx, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))

	require.NoError(t, m.Close())
	_, err = m.Load(ctx, KeyCart)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFile_WritesOneFilePerKey(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, f.Save(context.Background(), KeyWishlist, []byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "wishlist.json", entries[0].Name())
}

func TestRedis_PrefixAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s := NewRedis(client, RedisPrefix("alice"), time.Hour)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Save(context.Background(), KeyCart, []byte(`[]`)))

	assert.True(t, mr.Exists("storefront:alice:cart"))
	assert.Equal(t, time.Hour, mr.TTL("storefront:alice:cart"))

	mr.FastForward(2 * time.Hour)
	_, err := s.Load(context.Background(), KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisPrefix_DefaultProfile(t *testing.T) {
	assert.Equal(t, "storefront:default:", RedisPrefix(""))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, KeyCart, []byte(`[3]`)))
	require.NoError(t, s.Close())

	s, err = NewSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Load(ctx, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `[3]`, string(got))
}

// ---------------------------------------------------------------------------
// Envelope
// ---------------------------------------------------------------------------

func TestEncodeDecode_Envelope(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	data, err := Encode([]item{{ID: "1", Price: 100}}, at)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":1`)
	assert.Contains(t, string(data), `"savedAt":"2026-05-01T10:00:00Z"`)

	got, err := Decode[item](data)
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "1", Price: 100}}, got)
}

func TestEncode_NilWritesEmptyArray(t *testing.T) {
	data, err := Encode[item](nil, time.Now())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items":[]`)
}

func TestDecode_LegacyArray(t *testing.T) {
	got, err := Decode[item]([]byte(` [{"id":"7","price":5}] `))
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "7", Price: 5}}, got)
}

func TestDecode_Corrupt(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"garbage":         "not json",
		"truncated":       `[{"id":"1"`,
		"future version":  `{"version":99,"items":[]}`,
		"missing version": `{"items":[]}`,
		"wrong shape":     `{"version":1,"items":{"id":"1"}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode[item]([]byte(raw))
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestLoadItems_MissingKeyIsEmpty(t *testing.T) {
	got, err := LoadItems[item](context.Background(), NewMemory(), KeyCart)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveItems_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, SaveItems(ctx, s, KeyWishlist, []item{{ID: "a"}}, time.Now()))

	got, err := LoadItems[item](ctx, s, KeyWishlist)
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "a"}}, got)
}

// ---------------------------------------------------------------------------
// Open
// ---------------------------------------------------------------------------

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mr := miniredis.RunT(t)

	for _, cfg := range []Config{
		{Backend: BackendMemory},
		{Backend: BackendFile, Dir: filepath.Join(dir, "files")},
		{Backend: "", Dir: filepath.Join(dir, "default")},
		{Backend: BackendSQLite, Dir: dir},
		{Backend: BackendRedis, RedisURL: "redis://" + mr.Addr(), Profile: "p"},
	} {
		s, err := Open(ctx, cfg, quietLogger())
		require.NoError(t, err, cfg.Backend)
		require.NoError(t, s.Save(ctx, KeyCart, []byte(`[]`)), cfg.Backend)
		require.NoError(t, s.Close(), cfg.Backend)
	}

	_, err := Open(ctx, Config{Backend: "indexeddb"}, quietLogger())
	assert.Error(t, err)
}
