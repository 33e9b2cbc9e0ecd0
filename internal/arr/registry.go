// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package arr

import (
	"context"

	"github.com/tomtom215/homelab-bot/internal/config"
	"github.com/tomtom215/homelab-bot/internal/models"
)

// Service is one deletion backend.
type Service interface {
	Name() string
	// FindByExternalID returns nil, nil when the backend does not manage the item.
	FindByExternalID(ctx context.Context, externalID int) (*models.ManagedItem, error)
	Delete(ctx context.Context, serviceID int) error
	Ping(ctx context.Context) error
}

// Registry routes a media type to its deletion backend.
type Registry struct {
	services map[models.MediaType]Service
}

// NewRegistry wires Radarr to movies and Sonarr to shows. Instances that are
// not configured are left out.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{services: make(map[models.MediaType]Service, 2)}
	if radarr := NewRadarr(cfg.Radarr); radarr != nil {
		r.Register(models.MediaTypeMovie, radarr)
	}
	if sonarr := NewSonarr(cfg.Sonarr); sonarr != nil {
		r.Register(models.MediaTypeShow, sonarr)
	}
	return r
}

// Register sets the backend for mediaType.
func (r *Registry) Register(mediaType models.MediaType, svc Service) {
	r.services[mediaType] = svc
}

// For returns the backend for mediaType, or ErrNotConfigured.
func (r *Registry) For(mediaType models.MediaType) (Service, error) {
	svc, ok := r.services[mediaType]
	if !ok {
		return nil, ErrNotConfigured
	}
	return svc, nil
}

// PingAll checks every registered backend. The map is keyed by service name.
func (r *Registry) PingAll(ctx context.Context) map[string]error {
	out := make(map[string]error, len(r.services))
	for _, svc := range r.services {
		out[svc.Name()] = svc.Ping(ctx)
	}
	return out
}
