// Package kv is the key-value persistence primitive underneath profile and
// scan records. Keys are opaque strings and values are JSON documents.
//
// There are no multi-key transactions and no pagination: ScanByPrefix returns
// every match, so callers filter and sort in memory. That holds while each
// prefix covers a small number of keys.
package kv

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// Store is implemented by every backend.
type Store interface {
	// Get returns the value under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set writes value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// SetIfAbsent writes value only when key does not exist yet.
	SetIfAbsent(ctx context.Context, key string, value []byte) (created bool, err error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// ScanByPrefix returns the values of all keys starting with prefix, in no
	// particular order.
	ScanByPrefix(ctx context.Context, prefix string) ([][]byte, error)
}

// GetJSON reads key and decodes it into a T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var out T
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return out, found, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("decode %q: %w", key, err)
	}
	return out, true, nil
}

// SetJSON encodes v and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// SetJSONIfAbsent encodes v and writes it only when key is absent.
func SetJSONIfAbsent(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %q: %w", key, err)
	}
	return s.SetIfAbsent(ctx, key, raw)
}

// ScanJSON decodes every value under prefix into a T.
func ScanJSON[T any](ctx context.Context, s Store, prefix string) ([]T, error) {
	raws, err := s.ScanByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode value under %q: %w", prefix, err)
		}
		out = append(out, v)
	}
	return out, nil
}
