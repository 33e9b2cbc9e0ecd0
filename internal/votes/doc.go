// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

/*
Package votes implements the media-deletion vote: a community safety net
that proposes unwatched media for removal and deletes it through Radarr or
Sonarr only when nobody asked to keep it.

# Lifecycle

A vote is opened either by an admin (search and select) or by the discovery
sweep. Opening looks the item up in its deletion backend, posts the
announcement and only then persists the VoteRecord, keyed by
VoteKey(messageID, channelID). Members cast Keep or Delete through buttons;
a member holds at most one choice at a time.

A vote ends exactly once, through the expiry sweep, /finish_vote or
/cancel_vote. Whichever comes first claims the record by removing it from
the Ledger; later resolvers see ErrVoteNotFound. Resolution rules:

  - any Keep vote: kept
  - dry run enabled: would have been deleted (dry run), no backend call
  - not managed by Radarr/Sonarr: skipped
  - otherwise the backend delete decides between deleted and skipped

# Persistence

The Ledger serializes every load-mutate-save behind one mutex. Two
Repository implementations exist: a single JSON document (the default) and
Badger. The discovery cooldown marker is stored separately and only moves
forward when a discovery run actually posted a vote.

# Concurrency

All Engine methods are safe for concurrent use. External calls (Discord,
Radarr, Sonarr) never happen while the Ledger lock is held.
*/
package votes
