// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

/*
Package models defines the data structures shared across the bot.

# Vote Records

VoteRecord is the persisted state of one open deletion vote. It is keyed by
VoteKey, which is derived from the announcement's message and channel ids.
A record exists only while the vote is open; removing it is how a vote ends.

	rec.Cast(userID, models.ChoiceDelete) // switches sides, never double counts
	rec.HasKeepVotes()                     // any keep vote means the item stays
	rec.IsManaged()                        // Radarr or Sonarr can delete it

# Catalog and Backends

CatalogItem is a movie or show as reported by Plex, with show sizes and
runtimes summed over episodes. ManagedItem is the matching Radarr movie or
Sonarr series.

# Wire Formats

PlexLibrary* types decode the Plex JSON API. RadarrMovie and SonarrSeries
decode the v3 APIs. All use goccy/go-json through their clients.
*/
package models
