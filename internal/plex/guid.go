// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package plex

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tomtom215/homelab-bot/internal/models"
)

var (
	digitsPattern     = regexp.MustCompile(`\d+`)
	legacyTMDBPattern = regexp.MustCompile(`tmdb://(\d+)`)
	legacyTVDBPattern = regexp.MustCompile(`tvdb://(\d+)`)
)

// ExtractExternalID returns the TMDB id of a movie or the TVDB id of a show.
//
// The typed Guid list is authoritative when present. Only when it is empty is
// the legacy single guid consulted, and then only for an explicit
// tmdb:// or tvdb:// URI. Nil means no usable identifier was found.
func ExtractExternalID(item *models.PlexLibraryMetadata, mediaType models.MediaType) *int {
	scheme, legacy := "tmdb", legacyTMDBPattern
	if mediaType == models.MediaTypeShow {
		scheme, legacy = "tvdb", legacyTVDBPattern
	}

	if len(item.GUIDs) == 0 {
		if m := legacy.FindStringSubmatch(item.GUID); m != nil {
			return atoiPtr(m[1])
		}
		return nil
	}

	for _, g := range item.GUIDs {
		if g.ID == "" || !strings.Contains(strings.ToLower(g.ID), scheme) {
			continue
		}
		if digits := digitsPattern.FindString(g.ID); digits != "" {
			return atoiPtr(digits)
		}
	}
	return nil
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
