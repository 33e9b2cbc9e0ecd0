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

// Sonarr deletes series. Series are matched on their TVDB id.
type Sonarr struct {
	c *client
}

// Ensure Sonarr implements Service
var _ Service = (*Sonarr)(nil)

// NewSonarr returns a Sonarr service, or nil when cfg is not enabled.
func NewSonarr(cfg config.ArrConfig) *Sonarr {
	if !cfg.Enabled() {
		return nil
	}
	return &Sonarr{c: newClient("sonarr", cfg)}
}

// Name implements Service.
func (s *Sonarr) Name() string { return "sonarr" }

// FindByExternalID returns the series whose tvdbId equals tvdbID, or nil.
//
// Endpoint: GET /api/v3/series
func (s *Sonarr) FindByExternalID(ctx context.Context, tvdbID int) (*models.ManagedItem, error) {
	var series []models.SonarrSeries
	if err := s.c.getJSON(ctx, "/api/v3/series", &series); err != nil {
		return nil, err
	}
	for i := range series {
		sr := &series[i]
		if sr.TvdbID == tvdbID {
			return &models.ManagedItem{
				ID:         sr.ID,
				ExternalID: sr.TvdbID,
				Title:      sr.Title,
				Year:       sr.Year,
				Added:      parseAdded(sr.Added),
			}, nil
		}
	}
	return nil, nil
}

// Delete removes the series and all its episode files.
//
// Endpoint: DELETE /api/v3/series/{id}?deleteFiles=true
func (s *Sonarr) Delete(ctx context.Context, seriesID int) error {
	return s.c.deleteResource(ctx, "series", seriesID)
}

// Ping checks connectivity and the API key.
//
// Endpoint: GET /api/v3/system/status
func (s *Sonarr) Ping(ctx context.Context) error {
	return s.c.ping(ctx)
}
