package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/and161185/bankprep/internal/errs"
	"github.com/and161185/bankprep/internal/kv"
)

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "memory://?quota=8")
	require.NoError(t, err)
	defer s.Close()

	require.IsType(t, &kv.Memory{}, s)
	require.NoError(t, s.Set(ctx, "a", "b"))
	require.ErrorIs(t, s.Set(ctx, "big", "0123456789"), errs.ErrStorageUnavailable)
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "bp.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(ctx, "k", "v"))
}

func TestOpen_RedisPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	s, err := Open(ctx, "redis://"+mr.Addr()+"/0?prefix=bp:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", "v"))
	require.True(t, mr.Exists("bp:k"))
}

func TestOpen_Invalid(t *testing.T) {
	ctx := context.Background()
	for _, u := range []string{"", "nope", "ftp://x", "sqlite://", "memory://?quota=lots"} {
		_, err := Open(ctx, u)
		require.ErrorIs(t, err, errs.ErrConfiguration, u)
	}
}
