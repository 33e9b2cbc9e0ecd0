// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package services

import (
	"context"
	"fmt"
)

// Lifecycle is a component with a non-blocking Start and a blocking Stop.
//
// Satisfied by *discord.Bot and *scheduler.Scheduler.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop() error
}

// LifecycleService adapts a Start/Stop component to suture's Serve pattern:
//  1. Calls Start(ctx)
//  2. Waits for context cancellation
//  3. Calls Stop()
type LifecycleService struct {
	component Lifecycle
	name      string
}

// NewLifecycleService wraps component under the given service name.
func NewLifecycleService(name string, component Lifecycle) *LifecycleService {
	return &LifecycleService{component: component, name: name}
}

// Serve implements suture.Service. A Start error is returned at once so
// suture restarts the service with backoff.
func (s *LifecycleService) Serve(ctx context.Context) error {
	if err := s.component.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	if err := s.component.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", s.name, err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's log messages.
func (s *LifecycleService) String() string {
	return s.name
}
