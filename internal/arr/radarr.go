// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package arr

import (
	"context"

	"github.com/tomtom215/homelab-bot/internal/config"
	"github.com/tomtom215/homelab-bot/internal/models"
)

// Radarr deletes movies. Movies are matched on their TMDB id.
type Radarr struct {
	c *client
}

// Ensure Radarr implements Service
var _ Service = (*Radarr)(nil)

// NewRadarr returns a Radarr service, or nil when cfg is not enabled.
func NewRadarr(cfg config.ArrConfig) *Radarr {
	if !cfg.Enabled() {
		return nil
	}
	return &Radarr{c: newClient("radarr", cfg)}
}

// Name implements Service.
func (r *Radarr) Name() string { return "radarr" }

// FindByExternalID returns the movie whose tmdbId equals tmdbID, or nil.
//
// Endpoint: GET /api/v3/movie
func (r *Radarr) FindByExternalID(ctx context.Context, tmdbID int) (*models.ManagedItem, error) {
	var movies []models.RadarrMovie
	if err := r.c.getJSON(ctx, "/api/v3/movie", &movies); err != nil {
		return nil, err
	}
	for i := range movies {
		m := &movies[i]
		if m.TmdbID == tmdbID {
			return &models.ManagedItem{
				ID:         m.ID,
				ExternalID: m.TmdbID,
				Title:      m.Title,
				Year:       m.Year,
				Added:      parseAdded(m.Added),
			}, nil
		}
	}
	return nil, nil
}

// Delete removes the movie and its files.
//
// Endpoint: DELETE /api/v3/movie/{id}?deleteFiles=true
func (r *Radarr) Delete(ctx context.Context, movieID int) error {
	return r.c.deleteResource(ctx, "movie", movieID)
}

// Ping checks connectivity and the API key.
//
// Endpoint: GET /api/v3/system/status
func (r *Radarr) Ping(ctx context.Context) error {
	return r.c.ping(ctx)
}
