// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package votes

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/homelab-bot/internal/models"
)

const testChannelID = "222222222222222222"

// fakeCatalog serves fixed items per library.
type fakeCatalog struct {
	libraries []string
	items     map[string][]models.CatalogItem
	failing   map[string]error
	// episodeBytes is assigned to shows by Enrich.
	episodeBytes int64

	mu       sync.Mutex
	listed   []string
	enriched []string
}

func (c *fakeCatalog) Libraries() []string { return c.libraries }

func (c *fakeCatalog) ListItems(_ context.Context, library string) ([]models.CatalogItem, error) {
	c.mu.Lock()
	c.listed = append(c.listed, library)
	c.mu.Unlock()
	if err := c.failing[library]; err != nil {
		return nil, err
	}
	return append([]models.CatalogItem(nil), c.items[library]...), nil
}

func (c *fakeCatalog) Enrich(_ context.Context, item *models.CatalogItem) error {
	c.mu.Lock()
	c.enriched = append(c.enriched, item.CatalogKey)
	c.mu.Unlock()
	if item.MediaType == models.MediaTypeShow {
		item.SizeBytes = c.episodeBytes
	}
	return nil
}

// fakeBackend is an in-memory Radarr/Sonarr.
type fakeBackend struct {
	mu        sync.Mutex
	managed   map[int]*models.ManagedItem // by external id
	findErr   error
	deleteErr error
	deleted   []int
}

func (b *fakeBackend) FindByExternalID(_ context.Context, externalID int) (*models.ManagedItem, error) {
	if b.findErr != nil {
		return nil, b.findErr
	}
	return b.managed[externalID], nil
}

func (b *fakeBackend) Delete(_ context.Context, serviceID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, serviceID)
	return b.deleteErr
}

func (b *fakeBackend) deleteCalls() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.deleted...)
}

// fakeAnnouncer records what would have been sent to Discord.
type fakeAnnouncer struct {
	mu        sync.Mutex
	nextID    int
	intros    int
	posted    []*models.VoteRecord
	mentioned []bool
	attached  []string
	finalized map[string]models.Outcome // by vote key
	gone      map[string]bool           // message ids that no longer exist
	postErr   error
	existsErr error
	// onExists runs before each MessageExists check.
	onExists func()
}

func newFakeAnnouncer() *fakeAnnouncer {
	return &fakeAnnouncer{
		nextID:    100000000000000000,
		finalized: make(map[string]models.Outcome),
		gone:      make(map[string]bool),
	}
}

func (a *fakeAnnouncer) PostIntro(_ context.Context, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.intros++
	return nil
}

func (a *fakeAnnouncer) PostVote(_ context.Context, _ string, rec *models.VoteRecord, mentionRole bool) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.postErr != nil {
		return "", a.postErr
	}
	if rec.MessageID != "" {
		return "", errors.New("message id set before posting")
	}
	a.nextID++
	a.posted = append(a.posted, rec.Clone())
	a.mentioned = append(a.mentioned, mentionRole)
	return strconv.Itoa(a.nextID), nil
}

func (a *fakeAnnouncer) AttachControls(_ context.Context, rec *models.VoteRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attached = append(a.attached, rec.VoteKey)
	return nil
}

func (a *fakeAnnouncer) FinalizeVote(_ context.Context, rec *models.VoteRecord, outcome models.Outcome) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gone[rec.MessageID] {
		return ErrMessageNotFound
	}
	a.finalized[rec.VoteKey] = outcome
	return nil
}

func (a *fakeAnnouncer) MessageExists(ctx context.Context, _, messageID string) (bool, error) {
	if a.onExists != nil {
		a.onExists()
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.existsErr != nil {
		return false, a.existsErr
	}
	return !a.gone[messageID], nil
}

func (a *fakeAnnouncer) outcome(key string) (models.Outcome, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.finalized[key]
	return o, ok
}

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// harness wires an Engine to fakes backed by a JSON ledger in a temp dir
// unless newHarnessWithRepository picks another repository.
type harness struct {
	engine    *Engine
	ledger    *Ledger
	cooldown  CooldownStore
	catalog   *fakeCatalog
	radarr    *fakeBackend
	sonarr    *fakeBackend
	announcer *fakeAnnouncer
	clock     *testClock
}

func testEngineConfig() EngineConfig {
	return EngineConfig{
		ChannelID: testChannelID,
		Duration:  7 * 24 * time.Hour,
		DryRun:    false,
		Policy: DiscoveryPolicy{
			UnwatchedFor: 90 * 24 * time.Hour,
			MinAge:       30 * 24 * time.Hour,
		},
		Cooldown:      144 * time.Hour,
		MaxCandidates: 5,
	}
}

func newHarness(t *testing.T, cfg EngineConfig) *harness {
	t.Helper()
	return newHarnessWithRepository(t, cfg, NewJSONRepository(filepath.Join(t.TempDir(), "media_votes.json")))
}

func newHarnessWithRepository(t *testing.T, cfg EngineConfig, repo Repository) *harness {
	t.Helper()

	dir := t.TempDir()
	h := &harness{
		ledger:    NewLedger(repo),
		cooldown:  NewJSONCooldownStore(filepath.Join(dir, "auto_vote_last_run.json")),
		catalog:   &fakeCatalog{items: map[string][]models.CatalogItem{}},
		radarr:    &fakeBackend{managed: map[int]*models.ManagedItem{}},
		sonarr:    &fakeBackend{managed: map[int]*models.ManagedItem{}},
		announcer: newFakeAnnouncer(),
		clock:     &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.engine = NewEngine(cfg, Deps{
		Ledger:   h.ledger,
		Cooldown: h.cooldown,
		Catalog:  h.catalog,
		Backends: func(mt models.MediaType) (DeletionService, error) {
			switch mt {
			case models.MediaTypeMovie:
				return h.radarr, nil
			case models.MediaTypeShow:
				return h.sonarr, nil
			}
			return nil, errors.New("unknown media type")
		},
		Announcer: h.announcer,
	})
	h.engine.now = h.clock.Now
	return h
}

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

// movie returns an eligible movie relative to now.
func movie(key, title string, year int, tmdbID *int, now time.Time) models.CatalogItem {
	return models.CatalogItem{
		CatalogKey:    key,
		Title:         title,
		Year:          year,
		Library:       "Movies",
		MediaType:     models.MediaTypeMovie,
		SizeBytes:     4 << 30,
		AddedAt:       timePtr(now.Add(-40 * 24 * time.Hour)),
		LastWatchedAt: timePtr(now.Add(-120 * 24 * time.Hour)),
		ExternalID:    tmdbID,
	}
}

// openManagedMovie opens a vote on a movie Radarr manages under serviceID.
func (h *harness) openManagedMovie(t *testing.T, key string, tmdbID, serviceID int) *models.VoteRecord {
	t.Helper()
	h.radarr.managed[tmdbID] = &models.ManagedItem{ID: serviceID, ExternalID: tmdbID, Title: "Managed " + key, Year: 2019}
	rec, err := h.engine.Open(context.Background(), movie(key, "Movie "+key, 2019, intPtr(tmdbID), h.clock.Now()), OpenOptions{Source: SourceManual})
	if err != nil {
		t.Fatalf("Open(%s) error = %v", key, err)
	}
	return rec
}
