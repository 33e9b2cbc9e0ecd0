// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package plex

import (
	"testing"

	"github.com/tomtom215/homelab-bot/internal/models"
)

func TestExtractExternalID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		item      models.PlexLibraryMetadata
		mediaType models.MediaType
		want      int // 0 means nil
	}{
		{
			name:      "movie typed guids",
			item:      models.PlexLibraryMetadata{GUIDs: []models.PlexGUID{{ID: "imdb://tt0133093"}, {ID: "tmdb://603"}}},
			mediaType: models.MediaTypeMovie,
			want:      603,
		},
		{
			name:      "show typed guids",
			item:      models.PlexLibraryMetadata{GUIDs: []models.PlexGUID{{ID: "tmdb://1399"}, {ID: "tvdb://121361"}}},
			mediaType: models.MediaTypeShow,
			want:      121361,
		},
		{
			name:      "typed guids case insensitive scheme",
			item:      models.PlexLibraryMetadata{GUIDs: []models.PlexGUID{{ID: "TMDB://77"}}},
			mediaType: models.MediaTypeMovie,
			want:      77,
		},
		{
			name:      "movie with only imdb",
			item:      models.PlexLibraryMetadata{GUIDs: []models.PlexGUID{{ID: "imdb://tt0133093"}}},
			mediaType: models.MediaTypeMovie,
		},
		{
			name:      "typed list wins over legacy guid",
			item:      models.PlexLibraryMetadata{GUID: "tmdb://1", GUIDs: []models.PlexGUID{{ID: "imdb://tt2"}}},
			mediaType: models.MediaTypeMovie,
		},
		{
			name:      "legacy tmdb uri",
			item:      models.PlexLibraryMetadata{GUID: "plex://movie/abc?tmdb://550"},
			mediaType: models.MediaTypeMovie,
			want:      550,
		},
		{
			name:      "legacy tvdb uri",
			item:      models.PlexLibraryMetadata{GUID: "com.plexapp.agents.thetvdb://81189?lang=en"},
			mediaType: models.MediaTypeShow,
			want:      81189,
		},
		{
			name:      "legacy agent uri without scheme",
			item:      models.PlexLibraryMetadata{GUID: "com.plexapp.agents.imdb://tt0133093?lang=en"},
			mediaType: models.MediaTypeMovie,
		},
		{
			name:      "nothing at all",
			item:      models.PlexLibraryMetadata{},
			mediaType: models.MediaTypeShow,
		},
		{
			name:      "typed entry without digits",
			item:      models.PlexLibraryMetadata{GUIDs: []models.PlexGUID{{ID: "tvdb://"}, {ID: "tvdb://5"}}},
			mediaType: models.MediaTypeShow,
			want:      5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractExternalID(&tt.item, tt.mediaType)
			switch {
			case tt.want == 0 && got != nil:
				t.Errorf("ExtractExternalID() = %d, want nil", *got)
			case tt.want != 0 && got == nil:
				t.Errorf("ExtractExternalID() = nil, want %d", tt.want)
			case tt.want != 0 && *got != tt.want:
				t.Errorf("ExtractExternalID() = %d, want %d", *got, tt.want)
			}
		})
	}
}
