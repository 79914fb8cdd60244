package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/awaistahir/octotrmnl/internal/config"
	"github.com/awaistahir/octotrmnl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCache(t *testing.T, path string) {
	t.Helper()
	s, err := store.NewStore(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "carbon:forecast:UTC", []byte("{}"), -time.Minute))
	require.NoError(t, s.Put(ctx, "peak:2026-02-01T00:00:00.000Z", []byte(`"18:00"`), time.Hour))
}

func runPurge(t *testing.T, path string, args ...string) {
	t.Helper()
	settings = &config.Settings{Cache: config.CacheSettings{Backend: "sqlite", Path: path}}
	t.Cleanup(func() { settings = nil })

	cmd := cachePurgeCmd()
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
}

func liveEntry(t *testing.T, path string) bool {
	t.Helper()
	s, err := store.NewStore(path)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(context.Background(), "peak:2026-02-01T00:00:00.000Z")
	require.NoError(t, err)
	return ok
}

func TestCachePurge_ExpiredOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	seedCache(t, path)

	runPurge(t, path)

	assert.True(t, liveEntry(t, path))
}

func TestCachePurge_All(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	seedCache(t, path)

	runPurge(t, path, "--all")

	assert.False(t, liveEntry(t, path))
}
