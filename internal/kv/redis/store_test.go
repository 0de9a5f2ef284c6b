package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/and161185/bankprep/internal/errs"
)

func newStore(t *testing.T, prefix string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := New(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), prefix)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_RoundTrip(t *testing.T) {
	s, mr := newStore(t, "bp:")
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "bankprep_users")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "bankprep_users", `[]`))
	got, err := mr.Get("bp:bankprep_users")
	require.NoError(t, err)
	require.Equal(t, `[]`, got)

	v, ok, err := s.Get(ctx, "bankprep_users")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[]`, v)

	require.NoError(t, s.Remove(ctx, "bankprep_users"))
	require.False(t, mr.Exists("bp:bankprep_users"))
	require.NoError(t, s.Remove(ctx, "bankprep_users"))
}

func TestStore_ServerDown(t *testing.T) {
	s, mr := newStore(t, "")
	mr.Close()

	ctx := context.Background()
	_, _, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, errs.ErrStorageUnavailable)
	require.ErrorIs(t, s.Set(ctx, "k", "v"), errs.ErrStorageUnavailable)
	require.ErrorIs(t, s.Remove(ctx, "k"), errs.ErrStorageUnavailable)
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := Open(ctx, "redis://"+mr.Addr()+"/0", "")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(ctx, "a", "b"))

	_, err = Open(ctx, "not a url", "")
	require.Error(t, err)
}
