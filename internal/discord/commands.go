// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package discord

import "github.com/bwmarrin/discordgo"

// Slash command names.
const (
	CommandVoteDelete = "vote_delete"
	CommandFinishVote = "finish_vote"
	CommandCancelVote = "cancel_vote"
	CommandMediaStats = "media_stats"
	CommandPing       = "ping"
)

// adminCommands may only be run by administrators or the configured admin role.
var adminCommands = map[string]bool{
	CommandVoteDelete: true,
	CommandFinishVote: true,
	CommandCancelVote: true,
}

// Commands returns the slash command definitions for the bot.
func Commands() []*discordgo.ApplicationCommand {
	adminOnly := int64(discordgo.PermissionAdministrator)

	return []*discordgo.ApplicationCommand{
		{
			Name:                     CommandVoteDelete,
			Description:              "Search media by name and create a deletion vote",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Search query for media (movie or show name)",
					Required:    true,
				},
			},
		},
		{
			Name:                     CommandFinishVote,
			Description:              "Finish a vote now and apply the result (admin only)",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message_id",
					Description: "The vote message ID (right-click message -> Copy ID)",
					Required:    true,
				},
			},
		},
		{
			Name:                     CommandCancelVote,
			Description:              "Cancel an active vote (admin only)",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message_id",
					Description: "The vote message ID (right-click message -> Copy ID)",
					Required:    true,
				},
			},
		},
		{
			Name:        CommandMediaStats,
			Description: "Show statistics for the configured Plex libraries",
		},
		{
			Name:        CommandPing,
			Description: "Check the bot's latency.",
		},
	}
}
