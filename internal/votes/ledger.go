// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package votes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/homelab-bot/internal/metrics"
	"github.com/tomtom215/homelab-bot/internal/models"
	"github.com/tomtom215/homelab-bot/internal/validation"
)

var (
	// ErrVoteNotFound means the vote key is absent: the vote was resolved,
	// cancelled or never existed.
	ErrVoteNotFound = errors.New("vote not found or already resolved")

	// ErrMessageNotFound means the announcement message no longer exists.
	ErrMessageNotFound = errors.New("vote message not found")

	// errSkipSave lets an Update callback finish without writing.
	errSkipSave = errors.New("ledger unchanged")
)

// Ledger guards a Repository with a process-wide mutex so that every
// load-mutate-save runs to completion before the next one starts.
type Ledger struct {
	mu   sync.Mutex
	repo Repository
}

// NewLedger wraps repo.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Close closes the underlying repository.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.repo.Close()
}

// View runs fn against the current snapshot without saving.
// fn must not retain or mutate the snapshot.
func (l *Ledger) View(ctx context.Context, fn func(Snapshot) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap, err := l.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	return fn(snap)
}

// Update loads the snapshot, lets fn mutate it and saves the result.
// Nothing is saved when fn returns an error; errSkipSave ends without
// saving and without error.
func (l *Ledger) Update(ctx context.Context, fn func(Snapshot) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap, err := l.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if err := fn(snap); err != nil {
		if errors.Is(err, errSkipSave) {
			return nil
		}
		return err
	}
	if err := l.repo.Save(ctx, snap); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	metrics.SetVotesOpen(len(snap))
	return nil
}

// Put validates rec and stores it under rec.VoteKey.
func (l *Ledger) Put(ctx context.Context, rec *models.VoteRecord) error {
	if err := validation.ValidateStruct(rec); err != nil {
		return fmt.Errorf("invalid vote record: %w", err)
	}
	if rec.VoteKey != VoteKey(rec.MessageID, rec.ChannelID) {
		return fmt.Errorf("invalid vote record: key %q does not match message %s in channel %s",
			rec.VoteKey, rec.MessageID, rec.ChannelID)
	}
	stored := rec.Clone()
	return l.Update(ctx, func(snap Snapshot) error {
		snap[stored.VoteKey] = stored
		return nil
	})
}

// Get returns a copy of the record stored under key.
func (l *Ledger) Get(ctx context.Context, key string) (*models.VoteRecord, error) {
	var out *models.VoteRecord
	err := l.View(ctx, func(snap Snapshot) error {
		rec, ok := snap[key]
		if !ok {
			return ErrVoteNotFound
		}
		out = rec.Clone()
		return nil
	})
	return out, err
}

// FindByMessageID returns a copy of the record announced as messageID.
func (l *Ledger) FindByMessageID(ctx context.Context, messageID string) (*models.VoteRecord, error) {
	var out *models.VoteRecord
	err := l.View(ctx, func(snap Snapshot) error {
		if rec := findByMessageID(snap, messageID); rec != nil {
			out = rec.Clone()
			return nil
		}
		return ErrVoteNotFound
	})
	return out, err
}

// Claim removes the record stored under key and returns it.
// Exactly one concurrent caller wins; the others get ErrVoteNotFound.
func (l *Ledger) Claim(ctx context.Context, key string) (*models.VoteRecord, error) {
	var out *models.VoteRecord
	err := l.Update(ctx, func(snap Snapshot) error {
		rec, ok := snap[key]
		if !ok {
			return ErrVoteNotFound
		}
		delete(snap, key)
		out = rec
		return nil
	})
	return out, err
}

// List returns copies of all open records ordered by end time, then key.
func (l *Ledger) List(ctx context.Context) ([]*models.VoteRecord, error) {
	var out []*models.VoteRecord
	err := l.View(ctx, func(snap Snapshot) error {
		out = make([]*models.VoteRecord, 0, len(snap))
		for _, rec := range snap {
			out = append(out, rec.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndsAt.Equal(out[j].EndsAt) {
			return out[i].EndsAt.Before(out[j].EndsAt)
		}
		return out[i].VoteKey < out[j].VoteKey
	})
	return out, nil
}

// ActiveCatalogKeys returns the catalog keys of every open vote.
func (l *Ledger) ActiveCatalogKeys(ctx context.Context) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := l.View(ctx, func(snap Snapshot) error {
		for _, rec := range snap {
			keys[rec.CatalogKey] = struct{}{}
		}
		return nil
	})
	return keys, err
}

func findByMessageID(snap Snapshot, messageID string) *models.VoteRecord {
	if messageID == "" {
		return nil
	}
	for _, rec := range snap {
		if rec.MessageID == messageID {
			return rec
		}
	}
	return nil
}
