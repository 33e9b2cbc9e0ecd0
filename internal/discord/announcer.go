// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tomtom215/homelab-bot/internal/models"
	"github.com/tomtom215/homelab-bot/internal/votes"
)

// messenger is the subset of *discordgo.Session used to post and edit messages.
type messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts and edits vote announcements. It implements votes.Announcer.
type Announcer struct {
	api           messenger
	mentionRoleID string
	now           func() time.Time
}

var _ votes.Announcer = (*Announcer)(nil)

// NewAnnouncer creates an Announcer. mentionRoleID may be empty.
func NewAnnouncer(api messenger, mentionRoleID string) *Announcer {
	return &Announcer{api: api, mentionRoleID: mentionRoleID, now: time.Now}
}

// PostIntro posts the discovery batch introduction.
func (a *Announcer) PostIntro(ctx context.Context, channelID string) error {
	_, err := a.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         IntroText(a.mentionRoleID),
		AllowedMentions: a.allowedMentions(true),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("post intro to channel %s: %w", channelID, err)
	}
	return nil
}

// PostVote posts the announcement without controls and returns its message id.
func (a *Announcer) PostVote(ctx context.Context, channelID string, rec *models.VoteRecord, mentionRole bool) (string, error) {
	send := &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{VoteEmbed(rec, "", a.now())},
		AllowedMentions: a.allowedMentions(mentionRole),
	}
	if mentionRole && a.mentionRoleID != "" {
		send.Content = roleMention(a.mentionRoleID)
	}

	msg, err := a.api.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("post vote to channel %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// AttachControls adds the Keep and Delete buttons to a posted announcement.
func (a *Announcer) AttachControls(ctx context.Context, rec *models.VoteRecord) error {
	embeds := []*discordgo.MessageEmbed{VoteEmbed(rec, "", a.now())}
	components := VoteComponents(rec.VoteKey)
	return a.edit(ctx, rec, &embeds, &components)
}

// FinalizeVote shows outcome on the announcement and removes the buttons.
func (a *Announcer) FinalizeVote(ctx context.Context, rec *models.VoteRecord, outcome models.Outcome) error {
	embeds := []*discordgo.MessageEmbed{VoteEmbed(rec, outcome, a.now())}
	components := []discordgo.MessageComponent{}
	return a.edit(ctx, rec, &embeds, &components)
}

// MessageExists reports whether the message is still present in the channel.
func (a *Announcer) MessageExists(ctx context.Context, channelID, messageID string) (bool, error) {
	_, err := a.api.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("fetch message %s: %w", messageID, err)
}

func (a *Announcer) edit(ctx context.Context, rec *models.VoteRecord, embeds *[]*discordgo.MessageEmbed, components *[]discordgo.MessageComponent) error {
	_, err := a.api.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         rec.MessageID,
		Channel:    rec.ChannelID,
		Embeds:     embeds,
		Components: components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("edit message %s: %w", rec.MessageID, mapNotFound(err))
	}
	return nil
}

// allowedMentions restricts pings to the configured role, and only when asked.
func (a *Announcer) allowedMentions(mentionRole bool) *discordgo.MessageAllowedMentions {
	am := &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}
	if mentionRole && a.mentionRoleID != "" {
		am.Roles = []string{a.mentionRoleID}
	}
	return am
}

// isNotFound reports whether err is Discord saying the message or channel is gone.
func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return true
		}
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

func mapNotFound(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %w", votes.ErrMessageNotFound, err)
	}
	return err
}
