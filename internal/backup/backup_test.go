// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukuhw/undangan/internal/store"
)

func TestOnceWritesSnapshot(t *testing.T) {
	st, err := store.Open(store.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	require.NoError(t, st.Set(ctx, store.Key("groom", "messages", "1"), "hello"))

	dir := t.TempDir()
	m := New(st, filepath.Join(dir, "backups"), time.Hour, 3)

	path, err := m.Once(ctx)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Equal(t, fileExt, path[len(path)-len(fileExt):])
}

func TestOncePrunesOldSnapshots(t *testing.T) {
	st, err := store.Open(store.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	require.NoError(t, st.Set(ctx, store.Key("groom", "messages", "1"), "hello"))

	dir := t.TempDir()
	m := New(st, dir, time.Hour, 2)

	// Seed stale snapshots older than anything Once will produce.
	for _, name := range []string{"20200101T000000Z" + fileExt, "20200102T000000Z" + fileExt} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("old"), 0o644))
	}

	_, err = m.Once(ctx)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var kept []string
	for _, e := range entries {
		kept = append(kept, e.Name())
	}
	assert.Len(t, kept, 2, "only the two newest snapshots survive: %v", kept)
	assert.NotContains(t, kept, "20200101T000000Z"+fileExt)
}
