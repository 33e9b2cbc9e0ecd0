// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

// Package discord connects the vote engine and media catalog to Discord.
//
// It owns the gateway session, registers the slash commands, routes button
// and select-menu interactions, and renders vote announcements through
// Announcer, which the vote engine uses as its chat backend.
package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/tomtom215/homelab-bot/internal/cache"
	"github.com/tomtom215/homelab-bot/internal/config"
	"github.com/tomtom215/homelab-bot/internal/logging"
	"github.com/tomtom215/homelab-bot/internal/models"
	"github.com/tomtom215/homelab-bot/internal/plex"
	"github.com/tomtom215/homelab-bot/internal/votes"
)

const (
	// selectionTTL bounds how long a /vote_delete menu stays usable.
	selectionTTL = 15 * time.Minute

	// interactionTimeout bounds the work done for one interaction,
	// including deletion backend lookups when a vote is opened.
	interactionTimeout = 2 * time.Minute
)

// VoteEngine is the part of *votes.Engine driven by interactions.
type VoteEngine interface {
	Open(ctx context.Context, item models.CatalogItem, opts votes.OpenOptions) (*models.VoteRecord, error)
	Cast(ctx context.Context, key, userID string, choice models.Choice) (*models.VoteRecord, error)
	FinishByMessageID(ctx context.Context, messageID string) (models.Outcome, error)
	CancelByMessageID(ctx context.Context, messageID string) error
}

// MediaCatalog is the part of *plex.Catalog used by slash commands.
type MediaCatalog interface {
	Search(ctx context.Context, query string, limit int) ([]models.CatalogItem, error)
	Stats(ctx context.Context) (*plex.Stats, error)
}

// interactionAPI is the subset of *discordgo.Session used to answer interactions.
type interactionAPI interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	HeartbeatLatency() time.Duration
}

// selection is the state behind one /vote_delete select menu.
type selection struct {
	userID string
	items  []models.CatalogItem
}

// NewSession creates a gateway session for the bot token. It is not opened.
func NewSession(cfg config.DiscordConfig) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return s, nil
}

// Bot handles the gateway lifecycle and every interaction.
type Bot struct {
	cfg     config.DiscordConfig
	session *discordgo.Session
	api     interactionAPI
	engine  VoteEngine
	catalog MediaCatalog
	logger  zerolog.Logger
	now     func() time.Time

	selections *cache.Cache[selection]

	ready     chan struct{}
	readyOnce sync.Once
	removers  []func()
	mu        sync.Mutex
}

// NewBot wires the handlers onto session. Call Start to connect.
func NewBot(cfg config.DiscordConfig, session *discordgo.Session, engine VoteEngine, catalog MediaCatalog) *Bot {
	b := newBot(cfg, session, engine, catalog)
	b.session = session
	b.removers = append(b.removers,
		session.AddHandler(b.onReady),
		session.AddHandler(b.onInteractionCreate),
	)
	return b
}

func newBot(cfg config.DiscordConfig, api interactionAPI, engine VoteEngine, catalog MediaCatalog) *Bot {
	return &Bot{
		cfg:        cfg,
		api:        api,
		engine:     engine,
		catalog:    catalog,
		logger:     logging.WithComponent("discord"),
		now:        time.Now,
		selections: cache.New[selection](selectionTTL),
		ready:      make(chan struct{}),
	}
}

// Ready is closed once the first gateway Ready event has been handled and
// the slash commands are registered.
func (b *Bot) Ready() <-chan struct{} {
	return b.ready
}

// Start opens the gateway connection. discordgo reconnects on its own after that.
func (b *Bot) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	b.logger.Info().Msg("Discord gateway connected")
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close discord gateway: %w", err)
	}
	b.logger.Info().Msg("Discord gateway closed")
	return nil
}

// Close releases the handlers and the selection cache. The bot cannot be
// restarted afterwards.
func (b *Bot) Close() {
	b.mu.Lock()
	removers := b.removers
	b.removers = nil
	b.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
	b.selections.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("Discord session ready")

	b.readyOnce.Do(func() {
		if _, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.cfg.GuildID, Commands()); err != nil {
			b.logger.Error().Err(err).Str("guild_id", b.cfg.GuildID).Msg("Failed to register slash commands")
		} else {
			b.logger.Info().Int("commands", len(Commands())).Str("guild_id", b.cfg.GuildID).Msg("Slash commands registered")
		}
		close(b.ready)
	})
}

func (b *Bot) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	b.handleInteraction(ctx, i.Interaction)
}

// handleInteraction routes one interaction. Panics are recovered so a bad
// handler cannot take the gateway goroutine down.
func (b *Bot) handleInteraction(ctx context.Context, i *discordgo.Interaction) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	ctx = logging.ContextWithInteractionID(ctx, i.ID)
	log := logging.Ctx(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Interaction handler panicked")
		}
	}()

	var err error
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		err = b.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		err = b.handleComponent(ctx, i)
	default:
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Interaction handling failed")
	}
}

// isAdmin reports whether the invoking member may run admin commands.
func (b *Bot) isAdmin(i *discordgo.Interaction) bool {
	m := i.Member
	if m == nil {
		return false
	}
	if m.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if b.cfg.AdminRoleID == "" {
		return false
	}
	for _, role := range m.Roles {
		if role == b.cfg.AdminRoleID {
			return true
		}
	}
	return false
}

// interactionUserID returns the id of the user behind i, in a guild or a DM.
func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
