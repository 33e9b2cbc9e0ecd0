// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tomtom215/homelab-bot/internal/models"
	"github.com/tomtom215/homelab-bot/internal/plex"
)

const (
	colorStats = 0x1F2033
	colorError = 0xFF0000
)

// StatsEmbed renders the /media_stats summary.
func StatsEmbed(stats *plex.Stats, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "📊 Media Library Statistics",
		Description: "Statistics from your Plex Libraries",
		Color:       colorStats,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("📊 Stats as of %s • Use /media_stats to refresh", now.Format(time.DateTime)),
		},
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "🎬 Total collection",
		Value: codeBlock(
			fmt.Sprintf("Items: %d", stats.TotalItems),
			fmt.Sprintf("Episodes: %d", stats.TotalEpisodes),
			"Duration: "+formatRuntime(stats.TotalDurationMs),
			fmt.Sprintf("Size: %.1fGB", bytesToGiB(stats.TotalSizeBytes)),
		),
	})

	for _, ls := range stats.Libraries {
		embed.Fields = append(embed.Fields, libraryField(ls))
	}

	if len(stats.Recent) > 0 {
		lines := make([]string, 0, len(stats.Recent))
		for _, r := range stats.Recent {
			if r.MediaType == models.MediaTypeMovie {
				lines = append(lines, fmt.Sprintf("• %s - %s (%d)", r.Title, r.Library, r.Year))
			} else {
				lines = append(lines, fmt.Sprintf("• %s - %s (%d eps)", r.Title, r.Library, r.Episodes))
			}
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🆕 Recent additions",
			Value: truncate(codeBlock(lines...), 1024),
		})
	}

	return embed
}

func libraryField(ls plex.LibraryStats) *discordgo.MessageEmbedField {
	emoji := "📺"
	if ls.MediaType == models.MediaTypeMovie {
		emoji = "🎬"
	}
	field := &discordgo.MessageEmbedField{
		Name:   emoji + " " + strings.ToUpper(ls.Library),
		Inline: true,
	}
	if ls.Err != nil {
		field.Value = codeBlock("Unavailable")
		return field
	}

	minutes := float64(ls.DurationMs) / float64(time.Minute/time.Millisecond)
	if ls.MediaType == models.MediaTypeMovie {
		field.Value = codeBlock(
			fmt.Sprintf("Total: %d movies", ls.Items),
			"Duration: "+formatRuntime(ls.DurationMs),
			fmt.Sprintf("Size: %.1fGB", bytesToGiB(ls.SizeBytes)),
			fmt.Sprintf("Average: %.1fmin", average(minutes, ls.Items)),
			fmt.Sprintf("New: +%d this week", ls.AddedThisWeek),
		)
		return field
	}
	field.Value = codeBlock(
		fmt.Sprintf("Shows: %d series", ls.Items),
		fmt.Sprintf("Episodes: %d total", ls.Episodes),
		"Duration: "+formatRuntime(ls.DurationMs),
		fmt.Sprintf("Size: %.1fGB", bytesToGiB(ls.SizeBytes)),
		fmt.Sprintf("Average: %.1fmin", average(minutes, ls.Episodes)),
		fmt.Sprintf("New: +%d this week", ls.AddedThisWeek),
	)
	return field
}

func statsErrorEmbed(err error) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Error",
		Description: truncate(fmt.Sprintf("Failed to fetch media statistics:\n```%s```", err), 4000),
		Color:       colorError,
	}
}

// formatRuntime renders milliseconds as "Xd Yh Zm".
func formatRuntime(ms int64) string {
	total := time.Duration(ms) * time.Millisecond
	days := int64(total / (24 * time.Hour))
	hours := int64(total%(24*time.Hour)) / int64(time.Hour)
	minutes := int64(total%time.Hour) / int64(time.Minute)
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

func bytesToGiB(n int64) float64 {
	return float64(n) / (1 << 30)
}

func average(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func codeBlock(lines ...string) string {
	return "```\n" + strings.Join(lines, "\n") + "\n```"
}
