// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package discord

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/tomtom215/homelab-bot/internal/models"
	"github.com/tomtom215/homelab-bot/internal/votes"
)

// Embed colours.
const (
	colorBlurple = 0x5865F2
	colorGreen   = 0x57F287
	colorRed     = 0xED4245
	colorYellow  = 0xFEE75C
)

const (
	// maxMentionsLen keeps a voter list well inside Discord's 1024-char field limit.
	maxMentionsLen = 900
	displayDate    = "Jan 02, 2006"
)

// VoteEmbed renders the announcement for rec. An empty outcome renders an
// open vote with its remaining time measured from now.
func VoteEmbed(rec *models.VoteRecord, outcome models.Outcome, now time.Time) *discordgo.MessageEmbed {
	lastWatched := "Never"
	if rec.LastWatchedAt != nil {
		lastWatched = formatDate(rec.LastWatchedAt)
	}
	library := rec.LibraryName
	if library == "" {
		library = "Unknown"
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Vote: Delete %s?", rec.Title),
		Color:     colorBlurple,
		Timestamp: rec.CreatedAt.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Library", Value: library, Inline: true},
			{Name: "Size", Value: formatSize(rec.SizeGB) + " GB", Inline: true},
			{Name: "Last watched", Value: lastWatched, Inline: true},
			{Name: "Added", Value: formatDate(rec.AddedAt), Inline: true},
			{Name: "Keep votes", Value: voterSummary(rec.KeepVoters)},
			{Name: "Delete votes", Value: voterSummary(rec.DeleteVoters)},
		},
	}

	if outcome != "" {
		embed.Color = outcomeColor(outcome)
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Status",
			Value: capitalize(string(outcome)),
		})
		return embed
	}

	if !rec.IsManaged() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "⚠️ Note",
			Value: "Not managed by Radarr/Sonarr - cannot delete",
		})
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: endsText(rec.EndsAt, now)}
	return embed
}

// VoteComponents returns the Keep and Delete buttons for the vote with key.
func VoteComponents(key string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Keep",
					Style:    discordgo.SuccessButton,
					CustomID: votes.EncodeCustomID(models.ChoiceKeep, key),
				},
				discordgo.Button{
					Label:    "Delete",
					Style:    discordgo.DangerButton,
					CustomID: votes.EncodeCustomID(models.ChoiceDelete, key),
				},
			},
		},
	}
}

// IntroText is the message posted ahead of each discovery batch.
func IntroText(mentionRoleID string) string {
	text := "**Media deletion vote** — Unwatched media is up for removal. " +
		"Click **Keep** to save it, **Delete** to remove it. " +
		"When the vote ends, media with no Keep votes is deleted from the library."
	if mentionRoleID != "" {
		return roleMention(mentionRoleID) + "\n\n" + text
	}
	return text
}

func roleMention(roleID string) string {
	return "<@&" + roleID + ">"
}

func outcomeColor(outcome models.Outcome) int {
	switch {
	case outcome == models.OutcomeKept:
		return colorGreen
	case outcome == models.OutcomeDeleted:
		return colorRed
	case strings.Contains(strings.ToLower(string(outcome)), "dry run"):
		return colorYellow
	default:
		return colorBlurple
	}
}

func endsText(endsAt, now time.Time) string {
	days := int(math.Floor(endsAt.Sub(now).Hours() / 24))
	if days > 0 {
		return fmt.Sprintf("Vote ends in %d days", days)
	}
	return "Ends: " + endsAt.UTC().Format(time.DateOnly)
}

// voterSummary renders the vote count followed by the voter mentions.
func voterSummary(ids []string) string {
	return fmt.Sprintf("%d — %s", len(ids), formatVoters(ids))
}

func formatVoters(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	mentions := make([]string, len(ids))
	for i, id := range ids {
		mentions[i] = "<@" + id + ">"
	}
	joined := strings.Join(mentions, ", ")
	if utf8.RuneCountInString(joined) > maxMentionsLen {
		return truncate(joined, maxMentionsLen-3) + "..."
	}
	return joined
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "Unknown"
	}
	return t.UTC().Format(displayDate)
}

// formatSize renders a GB figure the way it is stored, keeping one decimal
// for whole numbers ("4.0", "1.25").
func formatSize(gb float64) string {
	s := strconv.FormatFloat(gb, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
