// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/homelab-bot/internal/models"
)

// Key prefixes for namespacing in BadgerDB.
const (
	badgerVoteKeyPrefix = "vote:"
	badgerCooldownKey   = "cooldown:last_run"
)

// BadgerStore keeps one record per vote plus the cooldown marker in one BadgerDB.
// Save still replaces the ledger as a unit, inside a single transaction.
type BadgerStore struct {
	db *badger.DB
}

// Ensure BadgerStore implements Repository and CooldownStore
var (
	_ Repository    = (*BadgerStore)(nil)
	_ CooldownStore = (*BadgerStore)(nil)
)

// OpenBadgerStore opens (or creates) the store in dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Suppress BadgerDB internal logs
	// The ledger is tiny; the 1GB default value log is wasteful here
	opts.ValueLogFileSize = 16 << 20
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for votes: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// newBadgerStoreFromDB wraps an existing DB; tests use an in-memory instance.
func newBadgerStoreFromDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Load implements Repository.
func (s *BadgerStore) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerVoteKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var rec models.VoteRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			snap[string(item.Key()[len(badgerVoteKeyPrefix):])] = &rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Save implements Repository. Keys absent from snap are deleted.
func (s *BadgerStore) Save(_ context.Context, snap Snapshot) error {
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerVoteKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)

		var stale [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if _, ok := snap[string(key[len(badgerVoteKeyPrefix):])]; !ok {
				stale = append(stale, key)
			}
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		for key, rec := range snap {
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encode %s: %w", key, err)
			}
			if err := txn.Set([]byte(badgerVoteKeyPrefix+key), data); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}
		return nil
	})
}

// LastRun implements CooldownStore.
func (s *BadgerStore) LastRun(_ context.Context) (time.Time, bool, error) {
	var last time.Time
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerCooldownKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return last.UnmarshalText(val)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get cooldown marker: %w", err)
	}
	return last.UTC(), true, nil
}

// SetLastRun implements CooldownStore.
func (s *BadgerStore) SetLastRun(_ context.Context, t time.Time) error {
	val, err := t.UTC().MarshalText()
	if err != nil {
		return fmt.Errorf("encode cooldown marker: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerCooldownKey), val)
	})
}

// Reset implements CooldownStore.
func (s *BadgerStore) Reset(_ context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerCooldownKey))
	})
}

// Close implements Repository.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
