// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package votes

import (
	"strings"

	"github.com/tomtom215/homelab-bot/internal/models"
)

// customIDPrefix starts every vote button custom id.
const customIDPrefix = "vote_"

// VoteKey builds the ledger key for the announcement posted as messageID in channelID.
// The same function is used at creation and lookup time.
func VoteKey(messageID, channelID string) string {
	return "msg_" + messageID + "_ch_" + channelID
}

// EncodeCustomID returns the button custom id for choice on the vote identified by key.
func EncodeCustomID(choice models.Choice, key string) string {
	return customIDPrefix + string(choice) + "_" + key
}

// DecodeCustomID splits a button custom id into its choice and vote key.
// ok is false for ids that do not belong to a vote button.
func DecodeCustomID(customID string) (choice models.Choice, key string, ok bool) {
	rest, found := strings.CutPrefix(customID, customIDPrefix)
	if !found {
		return "", "", false
	}
	action, key, found := strings.Cut(rest, "_")
	if !found || key == "" {
		return "", "", false
	}
	choice, err := models.ParseChoice(action)
	if err != nil {
		return "", "", false
	}
	return choice, key, true
}
