// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/tomtom215/homelab-bot/internal/logging"
	"github.com/tomtom215/homelab-bot/internal/metrics"
	"github.com/tomtom215/homelab-bot/internal/models"
	"github.com/tomtom215/homelab-bot/internal/plex"
	"github.com/tomtom215/homelab-bot/internal/votes"
)

const (
	// maxSearchResults is Discord's select-menu option limit.
	maxSearchResults = 25
	maxOptionLabel   = 100

	selectCustomIDPrefix = "media_select:"
)

// User-facing replies.
const (
	msgNotAdmin         = "You need the Administrator permission to use this command."
	msgVoteExpired      = "This vote has expired or been cancelled."
	msgVoteRecorded     = "Vote recorded!"
	msgNotYourMenu      = "This menu is not for you."
	msgSelectionExpired = "This selection has expired. Run /vote_delete again."
	msgNoVoteChannel    = "VOTE_CHANNEL_ID not set or channel not found. Set it in .env."
	msgVoteNotFound     = "Vote not found or already resolved."
	msgMessageNotFound  = "Vote message not found."
	msgVoteCancelled    = "Vote cancelled."
	msgPlexUnavailable  = "❌ Could not connect to Plex server. Please check your configuration."
)

func (b *Bot) handleCommand(ctx context.Context, i *discordgo.Interaction) error {
	data := i.ApplicationCommandData()
	metrics.RecordInteraction("command", data.Name)
	logging.Ctx(ctx).Debug().Str("command", data.Name).Str("user_id", interactionUserID(i)).Msg("Slash command received")

	if adminCommands[data.Name] && !b.isAdmin(i) {
		return b.respondEphemeral(ctx, i, msgNotAdmin)
	}

	switch data.Name {
	case CommandVoteDelete:
		return b.handleVoteDelete(ctx, i, stringOption(data.Options, "query"))
	case CommandFinishVote:
		return b.handleFinishVote(ctx, i, stringOption(data.Options, "message_id"))
	case CommandCancelVote:
		return b.handleCancelVote(ctx, i, stringOption(data.Options, "message_id"))
	case CommandMediaStats:
		return b.handleMediaStats(ctx, i)
	case CommandPing:
		return b.handlePing(ctx, i)
	default:
		return fmt.Errorf("unknown command %q", data.Name)
	}
}

func (b *Bot) handleComponent(ctx context.Context, i *discordgo.Interaction) error {
	data := i.MessageComponentData()

	if choice, key, ok := votes.DecodeCustomID(data.CustomID); ok {
		metrics.RecordInteraction("button", string(choice))
		return b.handleVoteButton(ctx, i, key, choice)
	}
	if token, ok := strings.CutPrefix(data.CustomID, selectCustomIDPrefix); ok {
		metrics.RecordInteraction("select", CommandVoteDelete)
		return b.handleVoteSelect(ctx, i, token, data.Values)
	}

	logging.Ctx(ctx).Debug().Str("custom_id", data.CustomID).Msg("Ignoring unknown component")
	return nil
}

// handleVoteButton records a Keep or Delete click and refreshes the announcement.
func (b *Bot) handleVoteButton(ctx context.Context, i *discordgo.Interaction, key string, choice models.Choice) error {
	rec, err := b.engine.Cast(ctx, key, interactionUserID(i), choice)
	if errors.Is(err, votes.ErrVoteNotFound) {
		return b.respondEphemeral(ctx, i, msgVoteExpired)
	}
	if err != nil {
		if rerr := b.respondEphemeral(ctx, i, "Could not record your vote. Please try again."); rerr != nil {
			logging.Ctx(ctx).Warn().Err(rerr).Msg("Failed to report vote failure")
		}
		return fmt.Errorf("cast vote on %s: %w", key, err)
	}

	err = b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{VoteEmbed(rec, "", b.now())},
			Components: VoteComponents(rec.VoteKey),
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("update vote message: %w", err)
	}
	return b.followupEphemeral(ctx, i, msgVoteRecorded)
}

// handleVoteDelete searches the catalog and offers the matches in a select menu.
func (b *Bot) handleVoteDelete(ctx context.Context, i *discordgo.Interaction, query string) error {
	if err := b.deferEphemeral(ctx, i); err != nil {
		return err
	}

	items, err := b.catalog.Search(ctx, query, maxSearchResults)
	if errors.Is(err, plex.ErrNotConfigured) {
		return b.editResponse(ctx, i, msgPlexUnavailable, nil)
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("Media search failed")
		return b.editResponse(ctx, i, "❌ Media search failed. Please try again later.", nil)
	}
	if len(items) == 0 {
		return b.editResponse(ctx, i, fmt.Sprintf("No media found for '%s'. Try a different search term.", query), nil)
	}

	b.selections.Set(i.ID, selection{userID: interactionUserID(i), items: items})
	components := selectComponents(i.ID, items)
	return b.editResponse(ctx, i, fmt.Sprintf("Found %d result(s). Select one to create a vote:", len(items)), &components)
}

// handleVoteSelect opens a vote on the chosen search result.
func (b *Bot) handleVoteSelect(ctx context.Context, i *discordgo.Interaction, token string, values []string) error {
	sel, ok := b.selections.Get(token)
	if !ok {
		return b.respondEphemeral(ctx, i, msgSelectionExpired)
	}
	if sel.userID != interactionUserID(i) {
		return b.respondEphemeral(ctx, i, msgNotYourMenu)
	}
	idx, err := selectedIndex(values, len(sel.items))
	if err != nil {
		return b.respondEphemeral(ctx, i, msgSelectionExpired)
	}
	// A second click on the same menu must not open a second vote.
	if _, ok := b.selections.Take(token); !ok {
		return b.respondEphemeral(ctx, i, msgSelectionExpired)
	}

	err = b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("acknowledge selection: %w", err)
	}

	noComponents := []discordgo.MessageComponent{}
	item := sel.items[idx]
	rec, err := b.engine.Open(ctx, item, votes.OpenOptions{Source: votes.SourceManual, MentionRole: true})
	switch {
	case errors.Is(err, votes.ErrNoVoteChannel) || isNotFound(err):
		return b.editResponse(ctx, i, msgNoVoteChannel, &noComponents)
	case err != nil:
		if eerr := b.editResponse(ctx, i, "❌ Could not create the vote. Check the bot logs.", &noComponents); eerr != nil {
			logging.Ctx(ctx).Warn().Err(eerr).Msg("Failed to report vote creation failure")
		}
		return fmt.Errorf("open vote on %s: %w", item.CatalogKey, err)
	}

	return b.editResponse(ctx, i,
		fmt.Sprintf("Vote created for **%s** in <#%s>", rec.Title, rec.ChannelID), &noComponents)
}

func (b *Bot) handleFinishVote(ctx context.Context, i *discordgo.Interaction, messageID string) error {
	if err := b.deferEphemeral(ctx, i); err != nil {
		return err
	}

	outcome, err := b.engine.FinishByMessageID(ctx, messageID)
	switch {
	case errors.Is(err, votes.ErrVoteNotFound):
		return b.editResponse(ctx, i, msgVoteNotFound, nil)
	case errors.Is(err, votes.ErrMessageNotFound):
		return b.editResponse(ctx, i, msgMessageNotFound, nil)
	case err != nil:
		if eerr := b.editResponse(ctx, i, "❌ Could not finish the vote. Please try again later.", nil); eerr != nil {
			logging.Ctx(ctx).Warn().Err(eerr).Msg("Failed to report finish failure")
		}
		return fmt.Errorf("finish vote %s: %w", messageID, err)
	}
	return b.editResponse(ctx, i, fmt.Sprintf("Vote finished. Result: **%s**.", outcome), nil)
}

func (b *Bot) handleCancelVote(ctx context.Context, i *discordgo.Interaction, messageID string) error {
	if err := b.deferEphemeral(ctx, i); err != nil {
		return err
	}

	err := b.engine.CancelByMessageID(ctx, messageID)
	switch {
	case errors.Is(err, votes.ErrVoteNotFound):
		return b.editResponse(ctx, i, msgVoteNotFound, nil)
	case err != nil:
		if eerr := b.editResponse(ctx, i, "❌ Could not cancel the vote. Please try again later.", nil); eerr != nil {
			logging.Ctx(ctx).Warn().Err(eerr).Msg("Failed to report cancel failure")
		}
		return fmt.Errorf("cancel vote %s: %w", messageID, err)
	}
	return b.editResponse(ctx, i, msgVoteCancelled, nil)
}

func (b *Bot) handleMediaStats(ctx context.Context, i *discordgo.Interaction) error {
	if err := b.deferEphemeral(ctx, i); err != nil {
		return err
	}

	stats, err := b.catalog.Stats(ctx)
	var embed *discordgo.MessageEmbed
	switch {
	case errors.Is(err, plex.ErrNotConfigured):
		return b.editResponse(ctx, i, msgPlexUnavailable, nil)
	case err != nil:
		logging.Ctx(ctx).Warn().Err(err).Msg("Media statistics failed")
		embed = statsErrorEmbed(err)
	default:
		embed = StatsEmbed(stats, b.now())
	}

	embeds := []*discordgo.MessageEmbed{embed}
	_, err = b.api.InteractionResponseEdit(i, &discordgo.WebhookEdit{Embeds: &embeds}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send media stats: %w", err)
	}
	return nil
}

func (b *Bot) handlePing(ctx context.Context, i *discordgo.Interaction) error {
	latency := b.api.HeartbeatLatency().Milliseconds()
	return b.respondEphemeral(ctx, i, fmt.Sprintf("🏓 Pong! Latency: %dms", latency))
}

func (b *Bot) respondEphemeral(ctx context.Context, i *discordgo.Interaction, content string) error {
	err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("respond to interaction: %w", err)
	}
	return nil
}

func (b *Bot) deferEphemeral(ctx context.Context, i *discordgo.Interaction) error {
	err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("defer interaction: %w", err)
	}
	return nil
}

// editResponse replaces the deferred or original response. A nil components
// pointer leaves the existing components untouched.
func (b *Bot) editResponse(ctx context.Context, i *discordgo.Interaction, content string, components *[]discordgo.MessageComponent) error {
	_, err := b.api.InteractionResponseEdit(i, &discordgo.WebhookEdit{
		Content:    &content,
		Components: components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("edit interaction response: %w", err)
	}
	return nil
}

func (b *Bot) followupEphemeral(ctx context.Context, i *discordgo.Interaction, content string) error {
	_, err := b.api.FollowupMessageCreate(i, false, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send followup: %w", err)
	}
	return nil
}

func selectComponents(token string, items []models.CatalogItem) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, min(len(items), maxSearchResults))
	for idx, item := range items {
		if idx == maxSearchResults {
			break
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       truncate(item.DisplayTitle(), maxOptionLabel),
			Value:       strconv.Itoa(idx),
			Description: item.Library,
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    selectCustomIDPrefix + token,
					Placeholder: "Choose media to vote on...",
					Options:     options,
				},
			},
		},
	}
}

func selectedIndex(values []string, n int) (int, error) {
	if len(values) != 1 {
		return 0, fmt.Errorf("expected one selected value, got %d", len(values))
	}
	idx, err := strconv.Atoi(values[0])
	if err != nil {
		return 0, fmt.Errorf("parse selected value: %w", err)
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("selected index %d out of range", idx)
	}
	return idx, nil
}

func stringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range opts {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return strings.TrimSpace(opt.StringValue())
		}
	}
	return ""
}
