// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package models

// Radarr / Sonarr v3 API Models
// Only the fields this bot reads are declared; both services return much larger documents.

// RadarrMovie is an element of GET /api/v3/movie
type RadarrMovie struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Year   int    `json:"year"`
	TmdbID int    `json:"tmdbId"`
	Added  string `json:"added,omitempty"` // ISO 8601
}

// SonarrSeries is an element of GET /api/v3/series
type SonarrSeries struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Year   int    `json:"year"`
	TvdbID int    `json:"tvdbId"`
	Added  string `json:"added,omitempty"` // ISO 8601
}
