// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

/*
Package cache provides a thread-safe in-memory cache with TTL support.

The bot uses it to hold short-lived interaction state, such as the search
results behind a /vote_delete selection menu, between the slash command and
the member's follow-up click.

# Expiration

Entries expire lazily on Get and are also purged by a background sweep that
runs every cleanup interval. Call Close to stop the sweep goroutine.

# Usage Example

	results := cache.New[[]models.CatalogItem](15 * time.Minute)
	defer results.Close()

	results.Set(interactionID, items)
	if items, ok := results.Get(interactionID); ok {
	    // ...
	}

Take removes and returns an entry in one step, which makes single-use state
(a selection menu that must only open one vote) safe under concurrent clicks.
*/
package cache
