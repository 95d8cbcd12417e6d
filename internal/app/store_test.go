package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/storefront-sync/config"
)

func TestOpenStore_Drivers(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{Store: config.Store{Driver: "memory"}}
	s, closeFn, err := openStore(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))
	closeFn()

	cfg = &config.Config{
		Store:  config.Store{Driver: " SQLite "},
		SQLite: config.SQLite{Path: filepath.Join(t.TempDir(), "cache.db")},
	}
	s, closeFn, err = openStore(ctx, cfg)
	require.NoError(t, err)
	defer closeFn()
	require.NoError(t, s.Set(ctx, "k", "v"))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, closeFn, err := openStore(context.Background(), &config.Config{Store: config.Store{Driver: "mongo"}})
	require.Error(t, err)
	closeFn()
}
