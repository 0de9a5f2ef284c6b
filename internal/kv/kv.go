// Package kv defines the string key-value storage contract used for the
// persisted documents, plus JSON helpers and an in-process implementation.
package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/and161185/bankprep/internal/errs"
)

// Store is a flat string key-value store. Every call is independent; there are
// no transactions. Backend failures match errs.ErrStorageUnavailable.
type Store interface {
	// Get returns the value and true, or "" and false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Unavailable wraps a backend error so that it matches errs.ErrStorageUnavailable.
func Unavailable(op, key string, err error) error {
	return fmt.Errorf("kv %s %q: %w: %w", op, key, errs.ErrStorageUnavailable, err)
}

// GetJSON decodes the document under key into dst. It reports false when the
// key is absent and leaves dst untouched.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("kv decode %q: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv encode %q: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}
