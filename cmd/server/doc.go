// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

/*
Package main is the entry point for the homelab Discord bot.

The bot lets a Discord community vote on deleting media from a Plex
library. Winning deletions are carried out through Radarr (movies) and
Sonarr (shows). Votes are opened by admins with /vote_delete or proposed
automatically by the discovery sweep for media nobody has watched.

# Application Architecture

Long-running components run under a suture v4 tree:

	RootSupervisor ("homelab-bot")
	├── IntegrationsSupervisor ("integrations-layer")
	│   └── discord-bot (gateway session and interaction handlers)
	├── JobsSupervisor ("jobs-layer")
	│   └── vote-scheduler
	│       ├── vote-expiry (resolves votes whose window has ended)
	│       └── vote-discovery (proposes unwatched media, gated by a cooldown)
	└── APISupervisor ("api-layer")
	    └── http-server (health, metrics and read-only vote API)

Startup order:

 1. Configuration: koanf v2 with defaults, an optional YAML file and environment variables
 2. Logging: zerolog with JSON or console output
 3. Upstreams: Plex catalog plus the Radarr and Sonarr deletion backends
 4. Vote state: JSON files or a Badger database, selected by VOTES_STORE
 5. Discord: gateway session, announcer and vote engine
 6. Scheduler: sweeps wait for the gateway's Ready event
 7. Supervisor tree: runs everything until SIGINT or SIGTERM

# Configuration

Priority: Environment variables > Config file > Defaults

	# Discord
	DISCORD_TOKEN=<bot token>        # required
	DISCORD_GUILD_ID=<guild id>      # register commands in one guild
	VOTE_CHANNEL_ID=<channel id>     # discovery posts here; empty disables discovery
	VOTE_MENTION_ROLE_ID=<role id>   # pinged on new votes
	ADMIN_ROLE_ID=<role id>          # grants admin commands

	# Upstreams
	PLEX_URL=http://plex:32400
	PLEX_TOKEN=<token>
	PLEX_LIBRARIES=Movies,TV Shows
	RADARR_URL=http://radarr:7878
	RADARR_API_KEY=<key>
	SONARR_URL=http://sonarr:8989
	SONARR_API_KEY=<key>

	# Votes
	VOTE_DURATION_DAYS=7
	AUTO_VOTE_UNWATCHED_DAYS=180
	AUTO_VOTE_MIN_AGE_DAYS=90
	MEDIA_VOTES_DRY_RUN=false
	VOTES_STORE=json                 # json or badger

	# HTTP
	HTTP_ENABLED=true
	HTTP_PORT=9464

	# Logging
	LOG_LEVEL=info                   # trace, debug, info, warn, error
	LOG_FORMAT=json                  # json or console

# Signal Handling

SIGINT and SIGTERM cancel the root context. The tree stops the HTTP
server, the scheduler (waiting for in-flight sweeps) and the gateway
session, then the vote stores are closed.
*/
package main
