// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package votes

import (
	"context"
	"time"

	"github.com/tomtom215/homelab-bot/internal/models"
)

// Snapshot is the full ledger: vote key to open record.
// Presence of a key is the only signal that a vote is still open.
type Snapshot map[string]*models.VoteRecord

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v.Clone()
	}
	return out
}

// Repository loads and saves the whole ledger as one unit.
// Load on an empty store returns an empty, non-nil Snapshot.
type Repository interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// CooldownStore persists the time of the last discovery run that posted votes.
type CooldownStore interface {
	// LastRun returns the zero time and false when discovery never ran.
	LastRun(ctx context.Context) (time.Time, bool, error)
	SetLastRun(ctx context.Context, t time.Time) error
	Reset(ctx context.Context) error
}
