package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KnyazhevAlex/dashboards/config"
	"github.com/KnyazhevAlex/dashboards/internal/cache/rediscache"
	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi"
	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi/fake"
	"github.com/KnyazhevAlex/dashboards/internal/services/dashboard"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		GMAPI: config.GMAPIConfig{Mode: "fake"},
		Dashboard: config.DashboardConfig{
			TripConcurrency:      5,
			TripAttempts:         2,
			ReportMaxPolls:       5,
			ReportPreDelayMillis: 1,
		},
	}
}

func testFactories() apiFactories {
	return apiFactories{
		newClient:   func(cfg *config.Config) gmapi.Client { return fake.New() },
		newRedis:    func(cfg *config.Config) *rediscache.Redis { return nil },
		newProducer: func(cfg *config.Config) dashboard.Producer { return nil },
	}
}

func TestRouter_Healthz(t *testing.T) {
	cfg := testConfig()
	svc := buildService(cfg, testFactories())
	r := newRouter(svc, nil, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_Dashboard(t *testing.T) {
	cfg := testConfig()
	svc := buildService(cfg, testFactories())
	r := newRouter(svc, nil, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Equal(t, 8, snap.TotalTrackers)
	require.Equal(t, 8, snap.Statuses.Total())
	require.NotNil(t, snap.Trips)
	require.NotNil(t, snap.Employees)
	require.NotNil(t, snap.Vehicles)
}

func TestRouter_StatsAndRefresh(t *testing.T) {
	cfg := testConfig()
	svc := buildService(cfg, testFactories())
	ref := buildRefresher(cfg, svc)
	r := newRouter(svc, ref, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Contains(t, stats, "service")
	require.Contains(t, stats, "refresher")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestRouter_RefreshWithoutRefresher(t *testing.T) {
	cfg := testConfig()
	svc := buildService(cfg, testFactories())
	r := newRouter(svc, nil, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ConfigHidesSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.GMAPI.Hash = "super-secret"
	svc := buildService(cfg, testFactories())
	r := newRouter(svc, nil, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/config", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "super-secret")
}
