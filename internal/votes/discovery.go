// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package votes

import (
	"context"
	"time"

	"github.com/tomtom215/homelab-bot/internal/logging"
	"github.com/tomtom215/homelab-bot/internal/models"
)

// Catalog is the read side of the media server used by discovery.
type Catalog interface {
	Libraries() []string
	ListItems(ctx context.Context, library string) ([]models.CatalogItem, error)
	// Enrich fills aggregate size and runtime for shows.
	Enrich(ctx context.Context, item *models.CatalogItem) error
}

// DiscoveryPolicy holds the candidate thresholds.
type DiscoveryPolicy struct {
	// UnwatchedFor excludes items watched more recently than this.
	UnwatchedFor time.Duration
	// MinAge excludes items added more recently than this.
	MinAge time.Duration
}

// Discover scans every library in order and returns up to limit items that are
// unwatched for policy.UnwatchedFor, older than policy.MinAge and not already
// under a vote (exclude holds catalog keys). Scanning stops as soon as limit
// items are collected. A library that cannot be read is logged and skipped.
func Discover(ctx context.Context, catalog Catalog, policy DiscoveryPolicy, exclude map[string]struct{}, limit int, now time.Time) []models.CatalogItem {
	if limit <= 0 {
		return nil
	}
	log := logging.Ctx(ctx)
	watchedCutoff := now.Add(-policy.UnwatchedFor)
	addedCutoff := now.Add(-policy.MinAge)

	var candidates []models.CatalogItem
	for _, library := range catalog.Libraries() {
		if ctx.Err() != nil {
			break
		}
		items, err := catalog.ListItems(ctx, library)
		if err != nil {
			log.Warn().Err(err).Str("library", library).Msg("Skipping library during discovery")
			continue
		}
		for i := range items {
			item := items[i]
			if !eligible(&item, exclude, watchedCutoff, addedCutoff) {
				continue
			}
			if err := catalog.Enrich(ctx, &item); err != nil {
				log.Warn().Err(err).Str("title", item.Title).Msg("Could not aggregate episodes, size will show as 0")
			}
			candidates = append(candidates, item)
			if len(candidates) >= limit {
				return candidates
			}
		}
	}
	return candidates
}

// eligible applies the exclusion and age filters. Missing timestamps never
// exclude: an item that was never watched, or whose added date is unknown,
// stays eligible.
func eligible(item *models.CatalogItem, exclude map[string]struct{}, watchedCutoff, addedCutoff time.Time) bool {
	if _, open := exclude[item.CatalogKey]; open {
		return false
	}
	if item.LastWatchedAt != nil && item.LastWatchedAt.After(watchedCutoff) {
		return false
	}
	if item.AddedAt != nil && item.AddedAt.After(addedCutoff) {
		return false
	}
	return true
}
