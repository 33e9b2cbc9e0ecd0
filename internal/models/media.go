// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package models

import (
	"fmt"
	"math"
	"time"
)

const bytesPerGB = 1024 * 1024 * 1024

// CatalogItem is a movie or show as seen by the media catalog.
type CatalogItem struct {
	CatalogKey string
	Title      string
	Year       int
	Library    string
	MediaType  MediaType

	// SizeBytes is the on-disk size. For shows it is the sum over all episodes.
	SizeBytes int64
	// DurationMs is the runtime. For shows it is the sum over all episodes.
	DurationMs   int64
	EpisodeCount int

	AddedAt       *time.Time
	LastWatchedAt *time.Time

	// ExternalID is the TMDB (movie) or TVDB (show) id, nil when none could be extracted.
	ExternalID *int
}

// DisplayTitle renders "Title (Year)", or just the title when the year is unknown.
func (c CatalogItem) DisplayTitle() string {
	return FormatTitle(c.Title, c.Year)
}

// SizeGB returns the size in GiB rounded to two decimals.
func (c CatalogItem) SizeGB() float64 {
	return BytesToGB(c.SizeBytes)
}

// ManagedItem is a record in Radarr or Sonarr.
type ManagedItem struct {
	ID         int
	ExternalID int
	Title      string
	Year       int
	Added      *time.Time
}

// DisplayTitle renders "Title (Year)" for the managed record.
func (m ManagedItem) DisplayTitle() string {
	return FormatTitle(m.Title, m.Year)
}

// FormatTitle renders "Title (Year)", or just the title when year is zero.
func FormatTitle(title string, year int) string {
	if title == "" {
		title = "Unknown"
	}
	if year > 0 {
		return fmt.Sprintf("%s (%d)", title, year)
	}
	return title
}

// BytesToGB converts a byte count to GiB rounded to two decimals.
func BytesToGB(n int64) float64 {
	return math.Round(float64(n)/bytesPerGB*100) / 100
}
