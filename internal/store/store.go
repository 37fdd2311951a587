// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

// Package store wraps BadgerDB as the ordered, tuple-keyed key-value store
// backing every persisted entity. Keys are slash-joined tuples whose first
// element is the owning tenant (or "ratelimit" for the per-IP limiter
// partition). Values are JSON. TTL entries back the rate-limit windows and
// failed-login counters.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// ErrNotFound is returned when a key does not exist (or has expired).
var ErrNotFound = errors.New("store: key not found")

// conflictRetries bounds transaction retries under Badger's SSI conflict
// detection before the error is surfaced to the handler.
const conflictRetries = 3

// Options configures the store.
type Options struct {
	// Path is the on-disk directory. Ignored when InMemory is set.
	Path string

	// InMemory runs Badger without persistence. Used by tests.
	InMemory bool
}

// Store is a BadgerDB-backed key-value store with JSON values.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store.
func Open(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithLogger(nil)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Path, err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key joins tuple parts into a slash-separated key.
func Key(parts ...string) []byte {
	n := 0
	for _, p := range parts {
		n += len(p) + 1
	}
	key := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			key = append(key, '/')
		}
		key = append(key, p...)
	}
	return key
}

// Prefix joins tuple parts into a partition prefix with a trailing
// separator, so "groom/messages" cannot match "groom/messages2".
func Prefix(parts ...string) []byte {
	return append(Key(parts...), '/')
}

// Get unmarshals the value at key into out.
func (s *Store) Get(ctx context.Context, key []byte, out any) error {
	return s.db.View(func(txn *badger.Txn) error {
		return txnGet(txn, key, out)
	})
}

// Set stores v at key.
func (s *Store) Set(ctx context.Context, key []byte, v any) error {
	return s.update(func(tx *Tx) error {
		return tx.Set(key, v)
	})
}

// SetWithTTL stores v at key with an expiry. The entry disappears from
// reads once the TTL passes.
func (s *Store) SetWithTTL(ctx context.Context, key []byte, v any, ttl time.Duration) error {
	return s.update(func(tx *Tx) error {
		return tx.SetWithTTL(key, v, ttl)
	})
}

// Delete removes the value at key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key []byte) error {
	return s.update(func(tx *Tx) error {
		return tx.Delete(key)
	})
}

// List iterates all entries under prefix, invoking fn with each raw value.
// Returning an error from fn stops the iteration.
func (s *Store) List(ctx context.Context, prefix []byte, fn func(key, val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return txnList(txn, prefix, fn)
	})
}

// Update runs fn inside a single read-write transaction, retrying a
// bounded number of times when Badger detects a serialization conflict.
// This is the primitive behind the atomic create-if-absent credential
// bootstrap and the reaction/reply read-modify-write updates.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	return s.update(fn)
}

func (s *Store) update(fn func(tx *Tx) error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			return fn(&Tx{txn: txn})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// Tx exposes JSON get/set/delete and prefix iteration inside a read-write
// transaction.
type Tx struct {
	txn *badger.Txn
}

// Get unmarshals the value at key into out.
func (t *Tx) Get(key []byte, out any) error {
	return txnGet(t.txn, key, out)
}

// Set stores v at key.
func (t *Tx) Set(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal value for %q: %w", key, err)
	}
	return t.txn.Set(key, data)
}

// SetWithTTL stores v at key with an expiry.
func (t *Tx) SetWithTTL(key []byte, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal value for %q: %w", key, err)
	}
	entry := badger.NewEntry(key, data).WithTTL(ttl)
	return t.txn.SetEntry(entry)
}

// Delete removes the value at key.
func (t *Tx) Delete(key []byte) error {
	err := t.txn.Delete(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// List iterates all entries under prefix within the transaction.
func (t *Tx) List(prefix []byte, fn func(key, val []byte) error) error {
	return txnList(t.txn, prefix, fn)
}

func txnGet(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %q: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, out); err != nil {
			return fmt.Errorf("unmarshal %q: %w", key, err)
		}
		return nil
	})
}

func txnList(txn *badger.Txn, prefix []byte, fn func(key, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		err := item.Value(func(val []byte) error {
			return fn(item.Key(), val)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Backup streams a full backup of the store to w using Badger's native
// backup format and returns the version watermark of the snapshot.
func (s *Store) Backup(ctx context.Context, w io.Writer) (uint64, error) {
	since, err := s.db.Backup(w, 0)
	if err != nil {
		return 0, fmt.Errorf("backup store: %w", err)
	}
	return since, nil
}

// Healthy reports whether the store can serve a read. Used by the health
// endpoint.
func (s *Store) Healthy(ctx context.Context) error {
	return s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("health/probe"))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
