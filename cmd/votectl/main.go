// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

// Command votectl inspects the bot's persisted vote state.
//
// It reads the same configuration as the bot (CONFIG_PATH, config.yaml and
// environment variables) but only needs the vote store settings:
//
//	votectl list
//	votectl show msg_123_ch_456
//	votectl cooldown show
//	votectl cooldown reset
//
// With VOTES_STORE=badger the database is locked by a running bot, so stop
// the bot first.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/tomtom215/homelab-bot/internal/config"
	"github.com/tomtom215/homelab-bot/internal/logging"
	"github.com/tomtom215/homelab-bot/internal/votes"
)

const programName = "votectl"

var configFile string

func openStores() (*stores, error) {
	if configFile != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
		Output: os.Stderr,
	})

	repo, cooldown, err := votes.OpenStores(cfg.Votes)
	if err != nil {
		return nil, err
	}
	return &stores{
		ledger:   votes.NewLedger(repo),
		cooldown: cooldown,
		period:   cfg.Votes.Cooldown,
	}, nil
}

func main() {
	rootCmd := newRootCommand(openStores, time.Now)
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
