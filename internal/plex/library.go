// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package plex

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tomtom215/homelab-bot/internal/models"
)

// Plex metadata type numbers accepted by the type= filter.
const (
	typeEpisode = 4
)

// GetLibrarySections lists all library sections.
//
// Endpoint: GET /library/sections
func (c *Client) GetLibrarySections(ctx context.Context) (*models.PlexLibrarySectionsResponse, error) {
	var resp models.PlexLibrarySectionsResponse
	if err := c.getJSON(ctx, "/library/sections", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLibraryContent lists every top-level item of a section with typed GUIDs.
//
// Endpoint: GET /library/sections/{key}/all?includeGuids=1
func (c *Client) GetLibraryContent(ctx context.Context, sectionKey string) (*models.PlexLibraryContentResponse, error) {
	query := url.Values{}
	query.Set("includeGuids", "1")

	var resp models.PlexLibraryContentResponse
	if err := c.getJSON(ctx, "/library/sections/"+url.PathEscape(sectionKey)+"/all", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSectionEpisodes lists every episode of a show section in one call.
//
// Endpoint: GET /library/sections/{key}/all?type=4
func (c *Client) GetSectionEpisodes(ctx context.Context, sectionKey string) (*models.PlexLibraryContentResponse, error) {
	query := url.Values{}
	query.Set("type", strconv.Itoa(typeEpisode))

	var resp models.PlexLibraryContentResponse
	if err := c.getJSON(ctx, "/library/sections/"+url.PathEscape(sectionKey)+"/all", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAllLeaves lists every episode of one show.
//
// Endpoint: GET /library/metadata/{ratingKey}/allLeaves
func (c *Client) GetAllLeaves(ctx context.Context, ratingKey string) (*models.PlexLibraryContentResponse, error) {
	var resp models.PlexLibraryContentResponse
	if err := c.getJSON(ctx, "/library/metadata/"+url.PathEscape(ratingKey)+"/allLeaves", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search performs a title search within a library section.
//
// Endpoint: GET /library/sections/{key}/search?query=...&includeGuids=1
func (c *Client) Search(ctx context.Context, sectionKey, searchQuery string, limit int) (*models.PlexLibraryContentResponse, error) {
	query := url.Values{}
	query.Set("query", searchQuery)
	query.Set("includeGuids", "1")
	if limit > 0 {
		query.Set("X-Plex-Container-Start", "0")
		query.Set("X-Plex-Container-Size", strconv.Itoa(limit))
	}

	var resp models.PlexLibraryContentResponse
	if err := c.getJSON(ctx, "/library/sections/"+url.PathEscape(sectionKey)+"/search", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
