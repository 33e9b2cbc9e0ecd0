// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package plex

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tomtom215/homelab-bot/internal/config"
	"github.com/tomtom215/homelab-bot/internal/logging"
	"github.com/tomtom215/homelab-bot/internal/models"
)

var (
	// ErrNotConfigured is returned by every Catalog method when no Plex server is configured.
	ErrNotConfigured = errors.New("plex: not configured")

	// ErrLibraryNotFound is returned when a configured library name has no matching section.
	ErrLibraryNotFound = errors.New("plex: library not found")
)

// Catalog is the read-only view of the Plex libraries used by votes and stats.
type Catalog struct {
	client    *Client
	libraries []string
	now       func() time.Time
}

// NewCatalog builds a Catalog from configuration. An unconfigured server
// yields a Catalog whose methods return ErrNotConfigured.
func NewCatalog(cfg config.PlexConfig) *Catalog {
	c := &Catalog{libraries: slices.Clone(cfg.Libraries), now: time.Now}
	if cfg.Enabled() {
		c.client = NewClient(cfg.URL, cfg.Token, cfg.Timeout).WithRateLimit(cfg.RequestsPerSecond, cfg.Burst)
	}
	return c
}

// newCatalogWithClient is used by tests to point at an httptest server.
func newCatalogWithClient(client *Client, libraries []string) *Catalog {
	return &Catalog{client: client, libraries: libraries, now: time.Now}
}

// Libraries returns the configured library names in scan order.
func (c *Catalog) Libraries() []string {
	return slices.Clone(c.libraries)
}

// sectionKeys maps lower-cased section titles to section keys.
func (c *Catalog) sectionKeys(ctx context.Context) (map[string]string, error) {
	resp, err := c.client.GetLibrarySections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list library sections: %w", err)
	}
	keys := make(map[string]string, len(resp.MediaContainer.Directory))
	for _, d := range resp.MediaContainer.Directory {
		keys[strings.ToLower(d.Title)] = d.Key
	}
	return keys, nil
}

func (c *Catalog) sectionKey(ctx context.Context, library string) (string, error) {
	keys, err := c.sectionKeys(ctx)
	if err != nil {
		return "", err
	}
	key, ok := keys[strings.ToLower(library)]
	if !ok {
		return "", fmt.Errorf("%q: %w", library, ErrLibraryNotFound)
	}
	return key, nil
}

// ListItems returns every top-level item of the named library.
// Show sizes are left at zero; call Enrich to aggregate episodes.
func (c *Catalog) ListItems(ctx context.Context, library string) ([]models.CatalogItem, error) {
	if c.client == nil {
		return nil, ErrNotConfigured
	}
	key, err := c.sectionKey(ctx, library)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.GetLibraryContent(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", library, err)
	}

	mediaType := models.MediaTypeForLibrary(library)
	items := make([]models.CatalogItem, 0, len(resp.MediaContainer.Metadata))
	for i := range resp.MediaContainer.Metadata {
		items = append(items, toCatalogItem(&resp.MediaContainer.Metadata[i], library, mediaType))
	}
	return items, nil
}

// Enrich fills show size, runtime and episode count by summing the show's
// episodes. Movies are returned unchanged.
func (c *Catalog) Enrich(ctx context.Context, item *models.CatalogItem) error {
	if c.client == nil {
		return ErrNotConfigured
	}
	if item.MediaType != models.MediaTypeShow {
		return nil
	}
	resp, err := c.client.GetAllLeaves(ctx, item.CatalogKey)
	if err != nil {
		return fmt.Errorf("list episodes of %q: %w", item.Title, err)
	}

	var size, duration int64
	for i := range resp.MediaContainer.Metadata {
		ep := &resp.MediaContainer.Metadata[i]
		size += ep.FirstPartSize()
		duration += ep.Duration
	}
	item.SizeBytes = size
	item.DurationMs = duration
	item.EpisodeCount = len(resp.MediaContainer.Metadata)
	return nil
}

// Search looks for query in every configured library and returns at most
// limit results, de-duplicated by catalog key. A library that fails is
// logged and skipped.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]models.CatalogItem, error) {
	if c.client == nil {
		return nil, ErrNotConfigured
	}
	keys, err := c.sectionKeys(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var results []models.CatalogItem
	for _, library := range c.libraries {
		key, ok := keys[strings.ToLower(library)]
		if !ok {
			logging.Warn().Str("library", library).Msg("Plex library not found, skipping search")
			continue
		}
		resp, err := c.client.Search(ctx, key, query, limit)
		if err != nil {
			logging.Warn().Err(err).Str("library", library).Msg("Plex search failed, skipping library")
			continue
		}
		mediaType := models.MediaTypeForLibrary(library)
		for i := range resp.MediaContainer.Metadata {
			meta := &resp.MediaContainer.Metadata[i]
			if _, dup := seen[meta.RatingKey]; dup {
				continue
			}
			seen[meta.RatingKey] = struct{}{}
			results = append(results, toCatalogItem(meta, library, mediaType))
		}
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func toCatalogItem(meta *models.PlexLibraryMetadata, library string, mediaType models.MediaType) models.CatalogItem {
	item := models.CatalogItem{
		CatalogKey:    meta.RatingKey,
		Title:         meta.Title,
		Year:          meta.Year,
		Library:       library,
		MediaType:     mediaType,
		EpisodeCount:  meta.LeafCount,
		AddedAt:       unixPtr(meta.AddedAt),
		LastWatchedAt: unixPtr(meta.LastViewedAt),
		ExternalID:    ExtractExternalID(meta, mediaType),
	}
	if mediaType == models.MediaTypeMovie {
		item.SizeBytes = meta.FirstPartSize()
		item.DurationMs = meta.Duration
	}
	return item
}

func unixPtr(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
