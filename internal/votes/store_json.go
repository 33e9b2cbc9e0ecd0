// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package votes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// ledgerDocument is the on-disk shape of the JSON ledger.
type ledgerDocument struct {
	Votes Snapshot `json:"votes"`
}

// cooldownDocument is the on-disk shape of the JSON cooldown marker.
type cooldownDocument struct {
	LastRun *time.Time `json:"last_run"`
}

// JSONRepository stores the ledger as one JSON document.
// A missing file is an empty ledger; a corrupt file is an error and is never overwritten implicitly.
type JSONRepository struct {
	path string
}

// Ensure JSONRepository implements Repository
var _ Repository = (*JSONRepository)(nil)

// NewJSONRepository returns a repository backed by path.
func NewJSONRepository(path string) *JSONRepository {
	return &JSONRepository{path: path}
}

// Load implements Repository.
func (r *JSONRepository) Load(_ context.Context) (Snapshot, error) {
	var doc ledgerDocument
	found, err := readJSON(r.path, &doc)
	if err != nil {
		return nil, err
	}
	if !found || doc.Votes == nil {
		return Snapshot{}, nil
	}
	return doc.Votes, nil
}

// Save implements Repository.
func (r *JSONRepository) Save(_ context.Context, snap Snapshot) error {
	if snap == nil {
		snap = Snapshot{}
	}
	return writeJSON(r.path, ledgerDocument{Votes: snap})
}

// Close implements Repository.
func (r *JSONRepository) Close() error { return nil }

// JSONCooldownStore stores the discovery marker as {"last_run": "<RFC 3339>"}.
type JSONCooldownStore struct {
	path string
}

// Ensure JSONCooldownStore implements CooldownStore
var _ CooldownStore = (*JSONCooldownStore)(nil)

// NewJSONCooldownStore returns a cooldown store backed by path.
func NewJSONCooldownStore(path string) *JSONCooldownStore {
	return &JSONCooldownStore{path: path}
}

// LastRun implements CooldownStore.
func (s *JSONCooldownStore) LastRun(_ context.Context) (time.Time, bool, error) {
	var doc cooldownDocument
	found, err := readJSON(s.path, &doc)
	if err != nil || !found || doc.LastRun == nil {
		return time.Time{}, false, err
	}
	return doc.LastRun.UTC(), true, nil
}

// SetLastRun implements CooldownStore.
func (s *JSONCooldownStore) SetLastRun(_ context.Context, t time.Time) error {
	t = t.UTC()
	return writeJSON(s.path, cooldownDocument{LastRun: &t})
}

// Reset implements CooldownStore.
func (s *JSONCooldownStore) Reset(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	return nil
}

// readJSON decodes path into v. found is false when the file does not exist.
func readJSON(path string, v interface{}) (found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// writeFileAtomic writes data to a temp file in the same directory and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create parent for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".votes-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}
