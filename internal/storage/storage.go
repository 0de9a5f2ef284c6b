// Package storage opens a kv.Store backend from a URL.
//
// Supported schemes:
//
//	memory://[?quota=BYTES]
//	sqlite://PATH
//	redis://[user:pass@]host:port/db[?prefix=P]
//	postgres://... or postgresql://...   (schema migrated on open)
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/and161185/bankprep/internal/errs"
	"github.com/and161185/bankprep/internal/kv"
	"github.com/and161185/bankprep/internal/kv/postgres"
	"github.com/and161185/bankprep/internal/kv/redis"
	"github.com/and161185/bankprep/internal/kv/sqlite"
	"github.com/and161185/bankprep/internal/migrate"
)

// Open returns the store described by rawURL.
func Open(ctx context.Context, rawURL string) (kv.Store, error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return nil, fmt.Errorf("storage url %q: missing scheme: %w", rawURL, errs.ErrConfiguration)
	}
	switch strings.ToLower(scheme) {
	case "memory":
		return openMemory(rawURL)
	case "sqlite":
		if rest == "" {
			return nil, fmt.Errorf("storage url %q: empty path: %w", rawURL, errs.ErrConfiguration)
		}
		return sqlite.Open(rest)
	case "redis", "rediss":
		return openRedis(ctx, rawURL)
	case "postgres", "postgresql":
		return openPostgres(ctx, rawURL)
	default:
		return nil, fmt.Errorf("storage url %q: unknown scheme %q: %w", rawURL, scheme, errs.ErrConfiguration)
	}
}

func openMemory(rawURL string) (kv.Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("storage url: %w: %w", errs.ErrConfiguration, err)
	}
	quota := 0
	if q := u.Query().Get("quota"); q != "" {
		if quota, err = strconv.Atoi(q); err != nil {
			return nil, fmt.Errorf("storage url: quota %q: %w", q, errs.ErrConfiguration)
		}
	}
	return kv.NewMemory(quota), nil
}

func openRedis(ctx context.Context, rawURL string) (kv.Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("storage url: %w: %w", errs.ErrConfiguration, err)
	}
	q := u.Query()
	prefix := q.Get("prefix")
	q.Del("prefix")
	u.RawQuery = q.Encode()
	return redis.Open(ctx, u.String(), prefix)
}

func openPostgres(ctx context.Context, dsn string) (kv.Store, error) {
	if err := migrate.Up(ctx, dsn); err != nil {
		return nil, kv.Unavailable("migrate", "", err)
	}
	db, err := postgres.New(ctx, dsn)
	if err != nil {
		return nil, kv.Unavailable("connect", "", err)
	}
	if err := db.Pool.Ping(ctx); err != nil {
		db.Close()
		return nil, kv.Unavailable("ping", "", err)
	}
	return postgres.NewStore(db), nil
}
