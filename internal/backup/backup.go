// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

// Package backup periodically snapshots the store to timestamped files
// using Badger's native backup stream, keeping a bounded number of
// snapshots on disk.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kukuhw/undangan/internal/logging"
	"github.com/kukuhw/undangan/internal/store"
)

const fileExt = ".badger.bak"

// Manager schedules periodic store backups.
type Manager struct {
	store    *store.Store
	dir      string
	interval time.Duration
	keep     int
}

// New creates a backup manager writing to dir every interval, retaining
// the keep most recent snapshots.
func New(s *store.Store, dir string, interval time.Duration, keep int) *Manager {
	return &Manager{store: s, dir: dir, interval: interval, keep: keep}
}

// Run takes a backup every interval until the context is cancelled. A
// failed backup is logged and retried at the next tick rather than
// stopping the loop.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if path, err := m.Once(ctx); err != nil {
				logging.Error().Err(err).Msg("Backup failed")
			} else {
				logging.Info().Str("path", path).Msg("Backup written")
			}
		}
	}
}

// Once takes a single backup and prunes old snapshots. It returns the
// path of the new snapshot file.
func (m *Manager) Once(ctx context.Context) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := time.Now().UTC().Format("20060102T150405Z") + fileExt
	path := filepath.Join(m.dir, name)

	f, err := os.CreateTemp(m.dir, name+".tmp")
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	tmp := f.Name()

	_, err = m.store.Backup(ctx, f)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return "", err
	}

	// Rename only once the stream is fully written, so a crash mid-backup
	// never leaves a truncated snapshot under the final name.
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalize backup: %w", err)
	}

	if err := m.prune(); err != nil {
		logging.Warn().Err(err).Msg("Failed to prune old backups")
	}
	return path, nil
}

// prune deletes all but the keep newest snapshots. Timestamped names sort
// chronologically.
func (m *Manager) prune() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	var snapshots []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".bak" {
			snapshots = append(snapshots, e.Name())
		}
	}
	if len(snapshots) <= m.keep {
		return nil
	}

	sort.Strings(snapshots)
	for _, name := range snapshots[:len(snapshots)-m.keep] {
		if err := os.Remove(filepath.Join(m.dir, name)); err != nil {
			return err
		}
	}
	return nil
}
