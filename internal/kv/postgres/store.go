package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/bankprep/internal/kv"
)

const (
	qGet    = `SELECT value FROM kv_entries WHERE key=$1`
	qSet    = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1,$2,now()) ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()`
	qRemove = `DELETE FROM kv_entries WHERE key=$1`
)

// Store keeps entries in the kv_entries table.
type Store struct{ db *DB }

var _ kv.Store = (*Store)(nil)

// NewStore constructs a store over db. The schema must already be migrated.
func NewStore(db *DB) *Store { return &Store{db: db} }

// Get implements kv.Store.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	if err := s.db.Pool.QueryRow(ctx, qGet, key).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, kv.Unavailable("get", key, err)
	}
	return v, true, nil
}

// Set implements kv.Store.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.Pool.Exec(ctx, qSet, key, value); err != nil {
		return kv.Unavailable("set", key, err)
	}
	return nil
}

// Remove implements kv.Store.
func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.Pool.Exec(ctx, qRemove, key); err != nil {
		return kv.Unavailable("remove", key, err)
	}
	return nil
}

// Close implements kv.Store.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}
