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
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tomtom215/homelab-bot/internal/config"
	"github.com/tomtom215/homelab-bot/internal/models"
	"github.com/tomtom215/homelab-bot/internal/plex"
	"github.com/tomtom215/homelab-bot/internal/votes"
)

// fakeInteractions records every response sent to Discord.
type fakeInteractions struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
	followups []*discordgo.WebhookParams

	// replies holds the text of every reply in the order it was sent.
	replies []string
	// respondCtxs holds the request context each InteractionRespond call would use.
	respondCtxs []context.Context
}

// requestContext applies opts the way discordgo does and returns the
// resulting request context.
func requestContext(opts []discordgo.RequestOption) context.Context {
	req, _ := http.NewRequest(http.MethodPost, "https://discord.com/api", http.NoBody)
	cfg := &discordgo.RequestConfig{Request: req}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg.Request.Context()
}

func (f *fakeInteractions) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, opts ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	f.respondCtxs = append(f.respondCtxs, requestContext(opts))
	if resp.Data != nil && resp.Data.Content != "" {
		f.replies = append(f.replies, resp.Data.Content)
	}
	return nil
}

func (f *fakeInteractions) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, edit)
	if edit.Content != nil {
		f.replies = append(f.replies, *edit.Content)
	}
	return &discordgo.Message{}, nil
}

func (f *fakeInteractions) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data)
	f.replies = append(f.replies, data.Content)
	return &discordgo.Message{}, nil
}

func (f *fakeInteractions) HeartbeatLatency() time.Duration {
	return 42 * time.Millisecond
}

// lastContent returns the text of the most recent reply of any kind.
func (f *fakeInteractions) lastContent(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		t.Fatal("no reply with content was sent")
	}
	return f.replies[len(f.replies)-1]
}

type fakeEngine struct {
	mu      sync.Mutex
	opened  []models.CatalogItem
	casts   []string
	openErr error
	castErr error
	outcome models.Outcome
	endErr  error
	cancels []string
}

func (f *fakeEngine) Open(_ context.Context, item models.CatalogItem, opts votes.OpenOptions) (*models.VoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	if !opts.MentionRole || opts.Source != votes.SourceManual {
		return nil, fmt.Errorf("unexpected options %+v", opts)
	}
	f.opened = append(f.opened, item)
	rec := testRecord()
	rec.Title = item.DisplayTitle()
	return rec, nil
}

func (f *fakeEngine) Cast(_ context.Context, key, userID string, choice models.Choice) (*models.VoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.castErr != nil {
		return nil, f.castErr
	}
	f.casts = append(f.casts, fmt.Sprintf("%s:%s:%s", key, userID, choice))
	rec := testRecord()
	rec.VoteKey = key
	rec.Cast(userID, choice)
	return rec, nil
}

func (f *fakeEngine) FinishByMessageID(context.Context, string) (models.Outcome, error) {
	return f.outcome, f.endErr
}

func (f *fakeEngine) CancelByMessageID(_ context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, messageID)
	return f.endErr
}

type fakeMediaCatalog struct {
	results  []models.CatalogItem
	err      error
	stats    *plex.Stats
	statsErr error
}

func (f *fakeMediaCatalog) Search(_ context.Context, _ string, limit int) ([]models.CatalogItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func (f *fakeMediaCatalog) Stats(context.Context) (*plex.Stats, error) {
	return f.stats, f.statsErr
}

func newTestBot(t *testing.T, engine VoteEngine, catalog MediaCatalog) (*Bot, *fakeInteractions) {
	t.Helper()
	api := &fakeInteractions{}
	b := newBot(config.DiscordConfig{AdminRoleID: "777"}, api, engine, catalog)
	b.now = func() time.Time { return testNow }
	t.Cleanup(b.selections.Close)
	return b, api
}

func member(userID string, admin bool, roles ...string) *discordgo.Member {
	m := &discordgo.Member{User: &discordgo.User{ID: userID}, Roles: roles}
	if admin {
		m.Permissions = discordgo.PermissionAdministrator
	}
	return m
}

func commandInteraction(id, name string, m *discordgo.Member, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:     id,
		Type:   discordgo.InteractionApplicationCommand,
		Member: m,
		Data:   discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
	}
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func componentInteraction(customID string, m *discordgo.Member, values ...string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:     "component-1",
		Type:   discordgo.InteractionMessageComponent,
		Member: m,
		Data:   discordgo.MessageComponentInteractionData{CustomID: customID, Values: values},
	}
}

func TestHandleVoteButton(t *testing.T) {
	t.Parallel()
	engine := &fakeEngine{}
	b, api := newTestBot(t, engine, &fakeMediaCatalog{})

	customID := votes.EncodeCustomID(models.ChoiceKeep, "msg_111_ch_222")
	b.handleInteraction(context.Background(), componentInteraction(customID, member("u1", false)))

	if len(engine.casts) != 1 || engine.casts[0] != "msg_111_ch_222:u1:keep" {
		t.Fatalf("casts = %v", engine.casts)
	}
	if len(api.responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(api.responses))
	}
	resp := api.responses[0]
	if resp.Type != discordgo.InteractionResponseUpdateMessage {
		t.Errorf("response type = %v, want message update", resp.Type)
	}
	if len(resp.Data.Components) != 1 {
		t.Error("updated message lost its buttons")
	}
	if keep := fieldMap(resp.Data.Embeds[0])["Keep votes"]; keep.Value != "1 — <@u1>" {
		t.Errorf("Keep votes = %q", keep.Value)
	}
	if len(api.followups) != 1 || api.followups[0].Content != msgVoteRecorded {
		t.Errorf("followups = %+v", api.followups)
	}
	if api.followups[0].Flags != discordgo.MessageFlagsEphemeral {
		t.Error("followup should be ephemeral")
	}
}

func TestHandleVoteButtonExpired(t *testing.T) {
	t.Parallel()
	engine := &fakeEngine{castErr: votes.ErrVoteNotFound}
	b, api := newTestBot(t, engine, &fakeMediaCatalog{})

	customID := votes.EncodeCustomID(models.ChoiceDelete, "msg_1_ch_2")
	b.handleInteraction(context.Background(), componentInteraction(customID, member("u1", false)))

	if got := api.lastContent(t); got != msgVoteExpired {
		t.Errorf("reply = %q, want %q", got, msgVoteExpired)
	}
	if len(api.followups) != 0 {
		t.Error("expired vote should not send a followup")
	}
}

func TestAdminCommandsRequirePermission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		member  *discordgo.Member
		allowed bool
	}{
		{"administrator", member("u1", true), true},
		{"admin role", member("u2", false, "777"), true},
		{"regular member", member("u3", false, "123"), false},
		{"direct message", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine := &fakeEngine{}
			b, api := newTestBot(t, engine, &fakeMediaCatalog{})

			b.handleInteraction(context.Background(),
				commandInteraction("c1", CommandCancelVote, tt.member, stringOpt("message_id", "111")))

			if tt.allowed {
				if len(engine.cancels) != 1 {
					t.Errorf("cancel not executed for allowed member")
				}
				return
			}
			if len(engine.cancels) != 0 {
				t.Error("cancel executed for a member without permission")
			}
			if got := api.lastContent(t); got != msgNotAdmin {
				t.Errorf("reply = %q", got)
			}
		})
	}
}

func TestHandleFinishAndCancel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		command string
		outcome models.Outcome
		err     error
		want    string
	}{
		{"finish kept", CommandFinishVote, models.OutcomeKept, nil, "Vote finished. Result: **kept**."},
		{"finish dry run", CommandFinishVote, models.OutcomeDryRun, nil, "Vote finished. Result: **would have been deleted (dry run)**."},
		{"finish unknown", CommandFinishVote, "", votes.ErrVoteNotFound, msgVoteNotFound},
		{"finish message gone", CommandFinishVote, "", fmt.Errorf("check: %w", votes.ErrMessageNotFound), msgMessageNotFound},
		{"cancel", CommandCancelVote, "", nil, msgVoteCancelled},
		{"cancel unknown", CommandCancelVote, "", votes.ErrVoteNotFound, msgVoteNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, api := newTestBot(t, &fakeEngine{outcome: tt.outcome, endErr: tt.err}, &fakeMediaCatalog{})

			b.handleInteraction(context.Background(),
				commandInteraction("c1", tt.command, member("admin", true), stringOpt("message_id", " 111 ")))

			if api.responses[0].Type != discordgo.InteractionResponseDeferredChannelMessageWithSource {
				t.Errorf("first response = %v, want deferred", api.responses[0].Type)
			}
			if got := api.lastContent(t); got != tt.want {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
		})
	}
}

func searchResults(n int) []models.CatalogItem {
	items := make([]models.CatalogItem, n)
	for i := range items {
		items[i] = models.CatalogItem{
			CatalogKey: fmt.Sprintf("%d", 100+i),
			Title:      fmt.Sprintf("Movie %d", i),
			Year:       2000 + i,
			Library:    "Movies",
			MediaType:  models.MediaTypeMovie,
		}
	}
	return items
}

func TestVoteDeleteSearch(t *testing.T) {
	t.Parallel()

	t.Run("no results", func(t *testing.T) {
		t.Parallel()
		b, api := newTestBot(t, &fakeEngine{}, &fakeMediaCatalog{})
		b.handleInteraction(context.Background(),
			commandInteraction("c1", CommandVoteDelete, member("admin", true), stringOpt("query", "zzz")))

		want := "No media found for 'zzz'. Try a different search term."
		if got := api.lastContent(t); got != want {
			t.Errorf("reply = %q, want %q", got, want)
		}
	})

	t.Run("plex not configured", func(t *testing.T) {
		t.Parallel()
		b, api := newTestBot(t, &fakeEngine{}, &fakeMediaCatalog{err: plex.ErrNotConfigured})
		b.handleInteraction(context.Background(),
			commandInteraction("c1", CommandVoteDelete, member("admin", true), stringOpt("query", "matrix")))

		if got := api.lastContent(t); got != msgPlexUnavailable {
			t.Errorf("reply = %q", got)
		}
	})

	t.Run("menu capped at 25", func(t *testing.T) {
		t.Parallel()
		b, api := newTestBot(t, &fakeEngine{}, &fakeMediaCatalog{results: searchResults(30)})
		b.handleInteraction(context.Background(),
			commandInteraction("c1", CommandVoteDelete, member("admin", true), stringOpt("query", "movie")))

		if got := api.lastContent(t); got != "Found 25 result(s). Select one to create a vote:" {
			t.Errorf("reply = %q", got)
		}
		edit := api.edits[len(api.edits)-1]
		row := (*edit.Components)[0].(discordgo.ActionsRow)
		menu := row.Components[0].(discordgo.SelectMenu)
		if menu.CustomID != selectCustomIDPrefix+"c1" {
			t.Errorf("CustomID = %q", menu.CustomID)
		}
		if len(menu.Options) != 25 || menu.Options[3].Value != "3" || menu.Options[3].Label != "Movie 3 (2003)" {
			t.Errorf("options = %d, sample %+v", len(menu.Options), menu.Options[3])
		}
	})
}

func TestVoteDeleteSelect(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T, engine *fakeEngine) (*Bot, *fakeInteractions) {
		t.Helper()
		b, api := newTestBot(t, engine, &fakeMediaCatalog{results: searchResults(3)})
		b.handleInteraction(context.Background(),
			commandInteraction("c1", CommandVoteDelete, member("admin", true), stringOpt("query", "movie")))
		return b, api
	}

	t.Run("opens vote for the invoker", func(t *testing.T) {
		t.Parallel()
		engine := &fakeEngine{}
		b, api := setup(t, engine)

		b.handleInteraction(context.Background(), componentInteraction(selectCustomIDPrefix+"c1", member("admin", true), "1"))

		if len(engine.opened) != 1 || engine.opened[0].CatalogKey != "101" {
			t.Fatalf("opened = %+v", engine.opened)
		}
		want := "Vote created for **Movie 1 (2001)** in <#222>"
		if got := api.lastContent(t); got != want {
			t.Errorf("reply = %q, want %q", got, want)
		}
		if edit := api.edits[len(api.edits)-1]; edit.Components == nil || len(*edit.Components) != 0 {
			t.Error("menu was not removed after the vote was created")
		}

		// The menu is single-use.
		b.handleInteraction(context.Background(), componentInteraction(selectCustomIDPrefix+"c1", member("admin", true), "2"))
		if len(engine.opened) != 1 {
			t.Error("a second selection opened another vote")
		}
		if got := api.lastContent(t); got != msgSelectionExpired {
			t.Errorf("reply = %q", got)
		}
	})

	t.Run("other users are rejected", func(t *testing.T) {
		t.Parallel()
		engine := &fakeEngine{}
		b, api := setup(t, engine)

		b.handleInteraction(context.Background(), componentInteraction(selectCustomIDPrefix+"c1", member("intruder", true), "0"))

		if len(engine.opened) != 0 {
			t.Fatal("vote opened from someone else's menu")
		}
		if got := api.lastContent(t); got != msgNotYourMenu {
			t.Errorf("reply = %q", got)
		}

		// The invoker can still use the menu.
		b.handleInteraction(context.Background(), componentInteraction(selectCustomIDPrefix+"c1", member("admin", true), "0"))
		if len(engine.opened) != 1 {
			t.Error("invoker could not use the menu after a rejected click")
		}
	})

	t.Run("missing vote channel", func(t *testing.T) {
		t.Parallel()
		b, api := setup(t, &fakeEngine{openErr: votes.ErrNoVoteChannel})

		b.handleInteraction(context.Background(), componentInteraction(selectCustomIDPrefix+"c1", member("admin", true), "0"))

		if got := api.lastContent(t); got != msgNoVoteChannel {
			t.Errorf("reply = %q", got)
		}
	})

	t.Run("unknown menu", func(t *testing.T) {
		t.Parallel()
		b, api := setup(t, &fakeEngine{})

		b.handleInteraction(context.Background(), componentInteraction(selectCustomIDPrefix+"nope", member("admin", true), "0"))

		if got := api.lastContent(t); got != msgSelectionExpired {
			t.Errorf("reply = %q", got)
		}
	})
}

func TestHandleMediaStats(t *testing.T) {
	t.Parallel()

	t.Run("renders embed", func(t *testing.T) {
		t.Parallel()
		stats := &plex.Stats{
			Libraries:  []plex.LibraryStats{{Library: "Movies", MediaType: models.MediaTypeMovie, Items: 2}},
			TotalItems: 2,
		}
		b, api := newTestBot(t, &fakeEngine{}, &fakeMediaCatalog{stats: stats})
		b.handleInteraction(context.Background(), commandInteraction("c1", CommandMediaStats, member("u1", false)))

		if len(api.edits) != 1 || api.edits[0].Embeds == nil {
			t.Fatalf("edits = %+v", api.edits)
		}
		if title := (*api.edits[0].Embeds)[0].Title; title != "📊 Media Library Statistics" {
			t.Errorf("title = %q", title)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		t.Parallel()
		b, api := newTestBot(t, &fakeEngine{}, &fakeMediaCatalog{statsErr: errors.New("plex down")})
		b.handleInteraction(context.Background(), commandInteraction("c1", CommandMediaStats, member("u1", false)))

		embed := (*api.edits[0].Embeds)[0]
		if embed.Color != colorError || !strings.Contains(embed.Description, "plex down") {
			t.Errorf("error embed = %+v", embed)
		}
	})
}

func TestHandlePing(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t, &fakeEngine{}, &fakeMediaCatalog{})

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "ping")
	b.handleInteraction(ctx, commandInteraction("c1", CommandPing, nil))

	if got := api.lastContent(t); got != "🏓 Pong! Latency: 42ms" {
		t.Errorf("reply = %q", got)
	}
	if len(api.respondCtxs) != 1 || api.respondCtxs[0].Value(ctxKey{}) != "ping" {
		t.Error("ephemeral reply was not sent with the interaction context")
	}
}

func TestUnknownComponentIgnored(t *testing.T) {
	t.Parallel()
	b, api := newTestBot(t, &fakeEngine{}, &fakeMediaCatalog{})

	b.handleInteraction(context.Background(), componentInteraction("something_else", member("u1", false)))

	if len(api.responses) != 0 {
		t.Errorf("unknown component got %d responses", len(api.responses))
	}
}
