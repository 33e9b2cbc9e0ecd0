// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package votes

import (
	"fmt"

	"github.com/tomtom215/homelab-bot/internal/config"
)

// Store backends accepted by votes.store.
const (
	StoreJSON   = "json"
	StoreBadger = "badger"
)

// OpenStores builds the ledger repository and cooldown store selected by cfg.Store.
// With Badger both share one database; closing the Repository closes it.
func OpenStores(cfg config.VotesConfig) (Repository, CooldownStore, error) {
	switch cfg.Store {
	case "", StoreJSON:
		return NewJSONRepository(cfg.LedgerPath), NewJSONCooldownStore(cfg.CooldownPath), nil
	case StoreBadger:
		store, err := OpenBadgerStore(cfg.BadgerDir)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown votes store %q", cfg.Store)
	}
}
