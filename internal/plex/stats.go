// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package plex

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/homelab-bot/internal/logging"
	"github.com/tomtom215/homelab-bot/internal/models"
)

const (
	recentWindow = 7 * 24 * time.Hour
	recentLimit  = 6
)

// LibraryStats summarises one library.
type LibraryStats struct {
	Library       string
	MediaType     models.MediaType
	Items         int
	Episodes      int
	SizeBytes     int64
	DurationMs    int64
	AddedThisWeek int

	// Err is set when the library could not be read; the other fields are zero.
	Err error
}

// RecentItem is one addition from the last week.
type RecentItem struct {
	Title     string
	Year      int
	Library   string
	MediaType models.MediaType
	Episodes  int
	AddedAt   time.Time
}

// Stats is the collection-wide summary behind /media_stats.
type Stats struct {
	Libraries       []LibraryStats
	TotalItems      int
	TotalEpisodes   int
	TotalSizeBytes  int64
	TotalDurationMs int64
	Recent          []RecentItem
}

// Stats walks every configured library. A failing library is reported in its
// LibraryStats.Err and does not abort the others.
func (c *Catalog) Stats(ctx context.Context) (*Stats, error) {
	if c.client == nil {
		return nil, ErrNotConfigured
	}
	keys, err := c.sectionKeys(ctx)
	if err != nil {
		return nil, err
	}

	since := c.now().Add(-recentWindow)
	out := &Stats{}
	for _, library := range c.libraries {
		ls, recent := c.libraryStats(ctx, keys, library, since)
		out.Libraries = append(out.Libraries, ls)
		out.Recent = append(out.Recent, recent...)
		out.TotalItems += ls.Items
		out.TotalEpisodes += ls.Episodes
		out.TotalSizeBytes += ls.SizeBytes
		out.TotalDurationMs += ls.DurationMs
	}

	sort.SliceStable(out.Recent, func(i, j int) bool {
		return out.Recent[i].AddedAt.After(out.Recent[j].AddedAt)
	})
	if len(out.Recent) > recentLimit {
		out.Recent = out.Recent[:recentLimit]
	}
	return out, nil
}

func (c *Catalog) libraryStats(ctx context.Context, keys map[string]string, library string, since time.Time) (LibraryStats, []RecentItem) {
	ls := LibraryStats{Library: library, MediaType: models.MediaTypeForLibrary(library)}

	key, ok := keys[strings.ToLower(library)]
	if !ok {
		ls.Err = ErrLibraryNotFound
		return ls, nil
	}
	content, err := c.client.GetLibraryContent(ctx, key)
	if err != nil {
		logging.Warn().Err(err).Str("library", library).Msg("Failed to read Plex library for stats")
		ls.Err = err
		return ls, nil
	}

	var recent []RecentItem
	for i := range content.MediaContainer.Metadata {
		meta := &content.MediaContainer.Metadata[i]
		ls.Items++
		if ls.MediaType == models.MediaTypeMovie {
			ls.SizeBytes += meta.FirstPartSize()
			ls.DurationMs += meta.Duration
		}
		if meta.AddedAt > 0 {
			added := time.Unix(meta.AddedAt, 0).UTC()
			if !added.Before(since) {
				ls.AddedThisWeek++
				recent = append(recent, RecentItem{
					Title:     meta.Title,
					Year:      meta.Year,
					Library:   library,
					MediaType: ls.MediaType,
					Episodes:  meta.LeafCount,
					AddedAt:   added,
				})
			}
		}
	}

	if ls.MediaType == models.MediaTypeShow {
		episodes, err := c.client.GetSectionEpisodes(ctx, key)
		if err != nil {
			logging.Warn().Err(err).Str("library", library).Msg("Failed to read Plex episodes for stats")
			ls.Err = err
			return ls, recent
		}
		for i := range episodes.MediaContainer.Metadata {
			ep := &episodes.MediaContainer.Metadata[i]
			ls.Episodes++
			ls.SizeBytes += ep.FirstPartSize()
			ls.DurationMs += ep.Duration
		}
	}
	return ls, recent
}
