// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

/*
Package supervisor runs the bot's long-lived services under suture v4.

The tree has three layers so that a failure in one does not restart the
others:

	RootSupervisor ("homelab-bot")
	├── IntegrationsSupervisor ("integrations-layer")
	│   └── discord-bot
	├── JobsSupervisor ("jobs-layer")
	│   └── vote-scheduler (expiry and discovery sweeps)
	└── APISupervisor ("api-layer")
	    └── http-server (if server.enabled)

Supervisor events are logged through sutureslog, which writes to the
zerolog-backed slog adapter from internal/logging.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddIntegrationService(services.NewLifecycleService("discord-bot", bot))
	tree.AddJobService(services.NewLifecycleService("vote-scheduler", sched))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	return tree.Serve(ctx)

Service wrappers live in the services subpackage.
*/
package supervisor
