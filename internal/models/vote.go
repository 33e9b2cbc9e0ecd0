// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// MediaType tags a vote record with the kind of media it targets.
// It also selects which deletion backend manages the item.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
)

// Valid reports whether m is a known media type.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeShow
}

// MediaTypeForLibrary infers the media type from a Plex library name.
// Libraries whose name mentions "movie" hold movies, everything else is treated as shows.
func MediaTypeForLibrary(library string) MediaType {
	if strings.Contains(strings.ToLower(library), "movie") {
		return MediaTypeMovie
	}
	return MediaTypeShow
}

// Choice is a single voter's decision on a vote.
type Choice string

const (
	ChoiceKeep   Choice = "keep"
	ChoiceDelete Choice = "delete"
)

// ParseChoice converts a raw action string into a Choice.
func ParseChoice(s string) (Choice, error) {
	switch Choice(s) {
	case ChoiceKeep, ChoiceDelete:
		return Choice(s), nil
	default:
		return "", fmt.Errorf("unknown vote choice %q", s)
	}
}

// Outcome is the terminal state of a vote.
// The string values are shown verbatim in the announcement status field.
type Outcome string

const (
	OutcomeKept      Outcome = "kept"
	OutcomeDeleted   Outcome = "deleted"
	OutcomeSkipped   Outcome = "skipped (not in Radarr/Sonarr)"
	OutcomeDryRun    Outcome = "would have been deleted (dry run)"
	OutcomeCancelled Outcome = "cancelled"
)

// VoteRecord is one media item under consideration for deletion.
//
// MessageID is empty between construction and delivery of the announcement;
// a record is only ever persisted once both MessageID and ChannelID are set.
type VoteRecord struct {
	VoteKey   string `json:"vote_key" validate:"required"`
	MessageID string `json:"message_id" validate:"required"`
	ChannelID string `json:"channel_id" validate:"required"`

	MediaType  MediaType `json:"media_type" validate:"required,oneof=movie show"`
	CatalogKey string    `json:"plex_rating_key" validate:"required"`

	// ExternalID is the TMDB id (movies) or TVDB id (shows). Nil means the item
	// is not known to any deletion backend.
	ExternalID *int `json:"external_id,omitempty"`

	// ManagedServiceID is the Radarr movie id or Sonarr series id found at open time.
	ManagedServiceID *int `json:"managed_service_id,omitempty"`

	Title         string     `json:"title" validate:"required"`
	LibraryName   string     `json:"library"`
	SizeGB        float64    `json:"size_gb" validate:"gte=0"`
	AddedAt       *time.Time `json:"added_at,omitempty"`
	LastWatchedAt *time.Time `json:"last_watched_at,omitempty"`

	CreatedAt time.Time `json:"created_at" validate:"required"`
	EndsAt    time.Time `json:"ends_at" validate:"required,gtfield=CreatedAt"`

	KeepVoters   []string `json:"keep_voters"`
	DeleteVoters []string `json:"delete_voters"`
}

// Cast registers userID under choice, moving the user out of the opposite set first.
// It returns false when the user already held that choice.
func (v *VoteRecord) Cast(userID string, choice Choice) bool {
	var add, remove *[]string
	switch choice {
	case ChoiceKeep:
		add, remove = &v.KeepVoters, &v.DeleteVoters
	case ChoiceDelete:
		add, remove = &v.DeleteVoters, &v.KeepVoters
	default:
		return false
	}

	*remove = slices.DeleteFunc(*remove, func(id string) bool { return id == userID })
	if slices.Contains(*add, userID) {
		return false
	}
	*add = append(*add, userID)
	return true
}

// ChoiceOf returns the current choice of userID, if any.
func (v *VoteRecord) ChoiceOf(userID string) (Choice, bool) {
	if slices.Contains(v.KeepVoters, userID) {
		return ChoiceKeep, true
	}
	if slices.Contains(v.DeleteVoters, userID) {
		return ChoiceDelete, true
	}
	return "", false
}

// HasKeepVotes reports whether at least one member voted to keep the item.
// A single keep vote overrides any number of delete votes.
func (v *VoteRecord) HasKeepVotes() bool {
	return len(v.KeepVoters) > 0
}

// IsManaged reports whether the record can be handed to a deletion backend.
func (v *VoteRecord) IsManaged() bool {
	return v.ExternalID != nil && v.ManagedServiceID != nil
}

// IsExpired reports whether the voting window has closed at now.
func (v *VoteRecord) IsExpired(now time.Time) bool {
	return !v.EndsAt.After(now)
}

// Clone returns a deep copy safe to mutate independently of v.
func (v *VoteRecord) Clone() *VoteRecord {
	c := *v
	c.KeepVoters = slices.Clone(v.KeepVoters)
	c.DeleteVoters = slices.Clone(v.DeleteVoters)
	if v.ExternalID != nil {
		id := *v.ExternalID
		c.ExternalID = &id
	}
	if v.ManagedServiceID != nil {
		id := *v.ManagedServiceID
		c.ManagedServiceID = &id
	}
	if v.AddedAt != nil {
		t := *v.AddedAt
		c.AddedAt = &t
	}
	if v.LastWatchedAt != nil {
		t := *v.LastWatchedAt
		c.LastWatchedAt = &t
	}
	return &c
}
