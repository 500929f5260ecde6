package localstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SchemaVersion is the snapshot format written by SaveItems. Version 0 is the
// legacy bare JSON array, which is still accepted on read.
const SchemaVersion = 1

type envelope struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"savedAt"`
	Items   json.RawMessage `json:"items"`
}

// Encode wraps items in a versioned envelope.
func Encode[T any](items []T, savedAt time.Time) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	return json.Marshal(envelope{Version: SchemaVersion, SavedAt: savedAt.UTC(), Items: raw})
}

// Decode reads a snapshot written by Encode or a legacy bare array. Anything
// else, including a version newer than SchemaVersion, wraps ErrCorrupt.
func Decode[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrCorrupt)
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: legacy array: %v", ErrCorrupt, err)
		}
		return items, nil
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("%w: envelope: %v", ErrCorrupt, err)
		}
		if env.Version < 1 || env.Version > SchemaVersion {
			return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, env.Version)
		}
		var items []T
		if len(env.Items) > 0 && string(env.Items) != "null" {
			if err := json.Unmarshal(env.Items, &items); err != nil {
				return nil, fmt.Errorf("%w: items: %v", ErrCorrupt, err)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: unexpected content", ErrCorrupt)
	}
}

// LoadItems reads and decodes the snapshot under key. A missing key yields
// an empty slice and no error.
func LoadItems[T any](ctx context.Context, s Store, key string) ([]T, error) {
	data, err := s.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	items, err := Decode[T](data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return items, nil
}

// SaveItems encodes items and writes them under key.
func SaveItems[T any](ctx context.Context, s Store, key string, items []T, now time.Time) error {
	data, err := Encode(items, now)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
