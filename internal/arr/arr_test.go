// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package arr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homelab-bot/internal/config"
	"github.com/tomtom215/homelab-bot/internal/models"
)

const testAPIKey = "arr-test-key"

// fakeArr records DELETE calls and serves a fixed resource list.
type fakeArr struct {
	mu           sync.Mutex
	deleted      []string
	deleteStatus int
}

func (f *fakeArr) handler(t *testing.T, resource string, list interface{}) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/"+resource, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	})
	mux.HandleFunc("/api/v3/"+resource+"/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Query().Get("deleteFiles") != "true" {
			t.Errorf("deleteFiles = %q, want true", r.URL.Query().Get("deleteFiles"))
		}
		f.mu.Lock()
		f.deleted = append(f.deleted, strings.TrimPrefix(r.URL.Path, "/api/v3/"+resource+"/"))
		status := f.deleteStatus
		f.mu.Unlock()
		if status == http.StatusInternalServerError {
			http.Error(w, "disk is read-only", status)
			return
		}
		w.WriteHeader(status)
	})
	mux.HandleFunc("/api/v3/system/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"appName":"Radarr","version":"5.0.0"}`))
	})
	return mux
}

func arrConfig(url string) config.ArrConfig {
	return config.ArrConfig{URL: url + "/", APIKey: testAPIKey, Timeout: time.Second}
}

func TestRadarr_FindByExternalID(t *testing.T) {
	t.Parallel()

	fake := &fakeArr{deleteStatus: http.StatusOK}
	srv := httptest.NewServer(fake.handler(t, "movie", []models.RadarrMovie{
		{ID: 1, Title: "The Matrix", Year: 1999, TmdbID: 603, Added: "2021-03-04T12:00:00Z"},
		{ID: 2, Title: "Heat", Year: 1995, TmdbID: 949, Added: "0001-01-01T00:00:00Z"},
	}))
	defer srv.Close()

	radarr := NewRadarr(arrConfig(srv.URL))
	ctx := context.Background()

	got, err := radarr.FindByExternalID(ctx, 603)
	if err != nil {
		t.Fatalf("FindByExternalID() error = %v", err)
	}
	if got == nil || got.ID != 1 || got.DisplayTitle() != "The Matrix (1999)" {
		t.Fatalf("FindByExternalID() = %+v", got)
	}
	if got.Added == nil || got.Added.Format("2006-01-02") != "2021-03-04" {
		t.Errorf("Added = %v, want 2021-03-04", got.Added)
	}

	heat, err := radarr.FindByExternalID(ctx, 949)
	if err != nil || heat == nil {
		t.Fatalf("FindByExternalID(949) = %v, %v", heat, err)
	}
	if heat.Added != nil {
		t.Errorf("zero added date should map to nil, got %v", heat.Added)
	}

	missing, err := radarr.FindByExternalID(ctx, 1)
	if err != nil || missing != nil {
		t.Errorf("FindByExternalID(1) = %v, %v; want nil, nil", missing, err)
	}
}

func TestSonarr_FindAndDelete(t *testing.T) {
	t.Parallel()

	fake := &fakeArr{deleteStatus: http.StatusNoContent}
	srv := httptest.NewServer(fake.handler(t, "series", []models.SonarrSeries{
		{ID: 7, Title: "Firefly", Year: 2002, TvdbID: 78874},
	}))
	defer srv.Close()

	sonarr := NewSonarr(arrConfig(srv.URL))
	ctx := context.Background()

	item, err := sonarr.FindByExternalID(ctx, 78874)
	if err != nil || item == nil {
		t.Fatalf("FindByExternalID() = %v, %v", item, err)
	}
	if err := sonarr.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.deleted) != 1 || fake.deleted[0] != "7" {
		t.Errorf("deleted = %v, want [7]", fake.deleted)
	}
}

func TestDelete_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		wantNotFound bool
		wantInError  string
	}{
		{name: "server error", status: http.StatusInternalServerError, wantInError: "disk is read-only"},
		{name: "not found", status: http.StatusNotFound, wantNotFound: true},
		{name: "accepted is not success", status: http.StatusAccepted, wantInError: "202"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeArr{deleteStatus: tt.status}
			srv := httptest.NewServer(fake.handler(t, "movie", []models.RadarrMovie{}))
			defer srv.Close()

			err := NewRadarr(arrConfig(srv.URL)).Delete(context.Background(), 42)
			if err == nil {
				t.Fatal("Delete() error = nil, want error")
			}
			if tt.wantNotFound && !errors.Is(err, ErrNotFound) {
				t.Errorf("Delete() error = %v, want ErrNotFound", err)
			}
			if tt.wantInError != "" && !strings.Contains(err.Error(), tt.wantInError) {
				t.Errorf("Delete() error = %v, want it to contain %q", err, tt.wantInError)
			}
		})
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	fake := &fakeArr{}
	srv := httptest.NewServer(fake.handler(t, "movie", nil))
	defer srv.Close()

	if err := NewRadarr(arrConfig(srv.URL)).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	bad := arrConfig(srv.URL)
	bad.APIKey = "wrong"
	if err := NewRadarr(bad).Ping(context.Background()); err == nil {
		t.Error("Ping() with wrong key error = nil, want error")
	}
}

func TestRateLimiter_RespectsContext(t *testing.T) {
	t.Parallel()

	fake := &fakeArr{}
	srv := httptest.NewServer(fake.handler(t, "movie", []models.RadarrMovie{}))
	defer srv.Close()

	cfg := arrConfig(srv.URL)
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	radarr := NewRadarr(cfg)

	if _, err := radarr.FindByExternalID(context.Background(), 1); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := radarr.FindByExternalID(ctx, 1); err == nil {
		t.Error("second call error = nil, want rate limiter error")
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Radarr: config.ArrConfig{URL: "http://radarr:7878", APIKey: "k"},
	}
	reg := NewRegistry(cfg)

	svc, err := reg.For(models.MediaTypeMovie)
	if err != nil || svc.Name() != "radarr" {
		t.Errorf("For(movie) = %v, %v", svc, err)
	}
	if _, err := reg.For(models.MediaTypeShow); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("For(show) error = %v, want ErrNotConfigured", err)
	}

	if NewSonarr(config.ArrConfig{URL: "http://sonarr:8989"}) != nil {
		t.Error("NewSonarr without API key should return nil")
	}
}

func TestParseAdded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "2023-11-05T08:30:00Z", want: "2023-11-05"},
		{in: "2023-11-05T23:30:00-05:00", want: "2023-11-06"},
		{in: "0001-01-01T00:00:00Z"},
		{in: "not a date"},
		{in: ""},
	}

	for _, tt := range tests {
		got := parseAdded(tt.in)
		switch {
		case tt.want == "" && got != nil:
			t.Errorf("parseAdded(%q) = %v, want nil", tt.in, got)
		case tt.want != "" && (got == nil || got.Format("2006-01-02") != tt.want):
			t.Errorf("parseAdded(%q) = %v, want %s", tt.in, got, tt.want)
		}
	}
}
