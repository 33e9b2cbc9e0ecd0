// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package models

// Plex REST API Models
// These structures represent responses from Plex Media Server REST API endpoints
// Documentation: https://plexapi.dev and https://www.plexopedia.com/plex-media-server/api/

// ============================================================================
// Library Sections Models - GET /library/sections
// ============================================================================

// PlexLibrarySectionsResponse represents the response from GET /library/sections
type PlexLibrarySectionsResponse struct {
	MediaContainer PlexLibrarySectionsContainer `json:"MediaContainer"`
}

// PlexLibrarySectionsContainer wraps the list of library sections
type PlexLibrarySectionsContainer struct {
	Size      int                  `json:"size"`
	Directory []PlexLibrarySection `json:"Directory,omitempty"`
}

// PlexLibrarySection represents a single library section (Movies, TV Shows, etc.)
type PlexLibrarySection struct {
	Key   string `json:"key"`   // Section key/ID (used in URLs like /library/sections/{key})
	Title string `json:"title"` // Section name (e.g., "Movies", "TV Shows")
	Type  string `json:"type"`  // Section type: "movie", "show", "artist", "photo"
}

// ============================================================================
// Library Content Models - GET /library/sections/{id}/all, /library/metadata/{id}/allLeaves
// ============================================================================

// PlexLibraryContentResponse represents a MediaContainer of library items.
// The same envelope is returned by section listings, search and leaf enumeration.
type PlexLibraryContentResponse struct {
	MediaContainer PlexLibraryContentContainer `json:"MediaContainer"`
}

// PlexLibraryContentContainer wraps library content items
type PlexLibraryContentContainer struct {
	Size                int                   `json:"size"`
	TotalSize           int                   `json:"totalSize,omitempty"`
	Offset              int                   `json:"offset,omitempty"`
	LibrarySectionID    int                   `json:"librarySectionID,omitempty"`
	LibrarySectionTitle string                `json:"librarySectionTitle,omitempty"`
	Metadata            []PlexLibraryMetadata `json:"Metadata,omitempty"`
}

// PlexLibraryMetadata represents a media item in a library section
type PlexLibraryMetadata struct {
	RatingKey            string `json:"ratingKey"`
	Key                  string `json:"key"`
	GrandparentRatingKey string `json:"grandparentRatingKey,omitempty"`
	Type                 string `json:"type"` // movie, show, season, episode

	Title            string `json:"title"`
	GrandparentTitle string `json:"grandparentTitle,omitempty"`
	Year             int    `json:"year,omitempty"`

	// GUID is the legacy single-agent identifier, e.g. "com.plexapp.agents.themoviedb://603?lang=en".
	GUID string `json:"guid,omitempty"`
	// GUIDs is the typed identifier list returned with includeGuids=1, e.g. [{"id":"tmdb://603"}].
	GUIDs []PlexGUID `json:"Guid,omitempty"`

	LeafCount       int `json:"leafCount,omitempty"`
	ViewedLeafCount int `json:"viewedLeafCount,omitempty"`

	AddedAt      int64 `json:"addedAt,omitempty"`      // Unix timestamp when added
	LastViewedAt int64 `json:"lastViewedAt,omitempty"` // Unix timestamp of last view
	Duration     int64 `json:"duration,omitempty"`     // Milliseconds

	Media []PlexMedia `json:"Media,omitempty"`
}

// PlexGUID is one typed external identifier ("imdb://tt0133093", "tmdb://603", "tvdb://81189").
type PlexGUID struct {
	ID string `json:"id"`
}

// PlexMedia represents one version of a media item
type PlexMedia struct {
	ID       int             `json:"id"`
	Duration int64           `json:"duration"`
	Part     []PlexMediaPart `json:"Part,omitempty"`
}

// PlexMediaPart represents a file on disk
type PlexMediaPart struct {
	ID       int    `json:"id"`
	Key      string `json:"key"`
	Duration int64  `json:"duration"`
	File     string `json:"file"`
	Size     int64  `json:"size"`
}

// FirstPartSize returns the size of the first part of the first media version,
// which is what Plex reports as the item's primary file.
func (m *PlexLibraryMetadata) FirstPartSize() int64 {
	if len(m.Media) == 0 || len(m.Media[0].Part) == 0 {
		return 0
	}
	return m.Media[0].Part[0].Size
}
