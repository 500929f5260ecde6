// Package localstore is the storefront's local key-value persistence. Each
// key holds one snapshot; writers are last-write-wins.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Well-known keys.
const (
	KeyCart     = "cart"
	KeyWishlist = "wishlist"
	KeySession  = "session"
)

var (
	// ErrNotFound is returned by Load when the key has never been written.
	ErrNotFound = errors.New("localstore: key not found")
	// ErrCorrupt is returned when a snapshot cannot be decoded.
	ErrCorrupt = errors.New("localstore: corrupt snapshot")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("localstore: store closed")
)

// Store persists opaque snapshots by key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// validateKey rejects keys that could escape a namespace or directory.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("localstore: empty key")
	}
	if strings.ContainsAny(key, `/\:`) || strings.Contains(key, "..") {
		return fmt.Errorf("localstore: invalid key %q", key)
	}
	return nil
}
