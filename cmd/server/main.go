// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/tomtom215/homelab-bot/internal/api"
	"github.com/tomtom215/homelab-bot/internal/arr"
	"github.com/tomtom215/homelab-bot/internal/config"
	"github.com/tomtom215/homelab-bot/internal/discord"
	"github.com/tomtom215/homelab-bot/internal/logging"
	"github.com/tomtom215/homelab-bot/internal/models"
	"github.com/tomtom215/homelab-bot/internal/plex"
	"github.com/tomtom215/homelab-bot/internal/scheduler"
	"github.com/tomtom215/homelab-bot/internal/supervisor"
	"github.com/tomtom215/homelab-bot/internal/supervisor/services"
	"github.com/tomtom215/homelab-bot/internal/votes"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Bot exited with error")
	}
}

//nolint:gocyclo // sequential wiring of every component
func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logging.Debug().Str("component", "maxprocs").Msg(fmt.Sprintf(format, args...))
	})); err != nil {
		logging.Warn().Err(err).Msg("Failed to set GOMAXPROCS")
	}

	logging.Info().
		Bool("plex", cfg.Plex.Enabled()).
		Bool("radarr", cfg.Radarr.Enabled()).
		Bool("sonarr", cfg.Sonarr.Enabled()).
		Bool("dry_run", cfg.Votes.DryRun).
		Str("store", cfg.Votes.Store).
		Msg("Configuration loaded")

	if cfg.Votes.DryRun {
		logging.Warn().Msg("Dry run enabled: winning votes will not delete anything")
	}

	catalog := plex.NewCatalog(cfg.Plex)
	registry := arr.NewRegistry(cfg)

	repo, cooldown, err := votes.OpenStores(cfg.Votes)
	if err != nil {
		return fmt.Errorf("open vote stores: %w", err)
	}
	ledger := votes.NewLedger(repo)
	defer func() {
		if err := ledger.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing vote ledger")
		}
	}()

	session, err := discord.NewSession(cfg.Discord)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}

	engine := votes.NewEngine(votes.EngineConfigFromConfig(cfg), votes.Deps{
		Ledger:    ledger,
		Cooldown:  cooldown,
		Catalog:   catalog,
		Announcer: discord.NewAnnouncer(session, cfg.Discord.VoteMentionRoleID),
		Backends: func(mt models.MediaType) (votes.DeletionService, error) {
			return registry.For(mt)
		},
	})

	bot := discord.NewBot(cfg.Discord, session, engine, catalog)
	defer bot.Close()

	sched, err := scheduler.New(bot.Ready(), sweepJobs(cfg, engine)...)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddIntegrationService(services.NewLifecycleService("discord-bot", bot))
	tree.AddJobService(services.NewLifecycleService("vote-scheduler", sched))

	if cfg.Server.Enabled {
		handler := api.NewHandler(api.HandlerDeps{
			Votes:          ledger,
			Cooldown:       cooldown,
			CooldownPeriod: cfg.Votes.Cooldown,
			Backends:       registry,
			Ready:          bot.Ready(),
		})
		server := &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:           api.NewRouter(cfg.Server, handler),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       cfg.Server.Timeout,
			WriteTimeout:      cfg.Server.Timeout,
			IdleTimeout:       60 * time.Second,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server configured")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logging.Info().Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Bot stopped")
	return nil
}

// sweepJobs builds the periodic vote jobs. Discovery needs a vote channel.
func sweepJobs(cfg *config.Config, engine *votes.Engine) []scheduler.Job {
	jobs := []scheduler.Job{{
		Name:     "vote-expiry",
		Interval: cfg.Votes.ExpiryInterval,
		Timeout:  10 * time.Minute,
		Run: func(ctx context.Context) error {
			_, err := engine.ExpirySweep(ctx)
			return err
		},
	}}

	if cfg.Discord.VoteChannelID == "" {
		logging.Info().Msg("Vote discovery disabled (VOTE_CHANNEL_ID not set)")
		return jobs
	}
	return append(jobs, scheduler.Job{
		Name:     "vote-discovery",
		Interval: cfg.Votes.DiscoveryInterval,
		Timeout:  30 * time.Minute,
		Run: func(ctx context.Context) error {
			_, err := engine.DiscoverySweep(ctx)
			return err
		},
	})
}
