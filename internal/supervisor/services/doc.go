// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

/*
Package services adapts bot components to suture's Serve(ctx) error pattern.

  - LifecycleService wraps anything with Start(ctx) error and Stop() error.
    The Discord bot and the vote scheduler both use it.
  - HTTPServerService wraps *http.Server with a bounded graceful shutdown.

Every wrapper implements fmt.Stringer so supervisor events name the service.
*/
package services
