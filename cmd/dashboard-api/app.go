package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/KnyazhevAlex/dashboards/config"
	"github.com/KnyazhevAlex/dashboards/internal/broker/kafka"
	"github.com/KnyazhevAlex/dashboards/internal/cache/rediscache"
	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi"
	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi/fake"
	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi/gmhttp"
	"github.com/KnyazhevAlex/dashboards/internal/services/dashboard"
	"github.com/KnyazhevAlex/dashboards/internal/services/refresher"
	"github.com/KnyazhevAlex/dashboards/internal/services/reports"
	"github.com/KnyazhevAlex/dashboards/internal/services/trips"
	"github.com/go-chi/chi/v5"
)

type apiFactories struct {
	newClient   func(cfg *config.Config) gmapi.Client
	newRedis    func(cfg *config.Config) *rediscache.Redis
	newProducer func(cfg *config.Config) dashboard.Producer
}

func defaultFactories() apiFactories {
	return apiFactories{
		newClient: func(cfg *config.Config) gmapi.Client {
			// Демо-режим без доступа к платформе: детерминированная заглушка.
			if cfg.GMAPI.Mode == "fake" {
				return fake.New()
			}
			return gmhttp.New(cfg.GMAPI.BaseURL, cfg.GMAPI.Hash)
		},
		newRedis: func(cfg *config.Config) *rediscache.Redis {
			if cfg.Redis.Host == "" {
				return nil
			}
			return rediscache.New(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
		},
		newProducer: func(cfg *config.Config) dashboard.Producer {
			if cfg.Kafka.Host == "" {
				return nil
			}
			return kafka.NewProducer([]string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)})
		},
	}
}

func buildService(cfg *config.Config, f apiFactories) *dashboard.Service {
	client := f.newClient(cfg)
	rds := f.newRedis(cfg)

	fetcher := trips.NewFetcher(client).WithSettings(
		cfg.Dashboard.TripConcurrency,
		cfg.Dashboard.TripAttempts,
		time.Duration(cfg.Dashboard.TripRetryPauseSeconds)*time.Second,
	)
	if rds != nil && cfg.Dashboard.APIRateLimitPerMinute > 0 {
		fetcher.WithRateLimiter(rds, int64(cfg.Dashboard.APIRateLimitPerMinute))
	}

	pipeline := reports.NewPipeline(client).WithSettings(
		time.Duration(cfg.Dashboard.ReportPollIntervalSeconds)*time.Second,
		cfg.Dashboard.ReportMaxPolls,
		time.Duration(cfg.Dashboard.ReportPreDelayMillis)*time.Millisecond,
	)

	svc := dashboard.New(client, fetcher, pipeline)

	if rds != nil {
		ttl := time.Duration(cfg.Dashboard.SnapshotTTLSeconds) * time.Second
		if ttl <= 0 {
			ttl = 2 * time.Minute
		}
		svc.WithCache(rds, ttl)
	}
	if p := f.newProducer(cfg); p != nil {
		topic := cfg.Kafka.SnapshotTopicName
		if topic == "" {
			topic = "fleet.snapshot.computed"
		}
		svc.WithProducer(p, topic)
	}
	return svc
}

func buildRefresher(cfg *config.Config, svc *dashboard.Service) *refresher.Refresher {
	return refresher.New(svc, snapshotCacheKey).WithPlanner(refresher.PlannerConfig{
		RefreshMinDelay: time.Duration(cfg.Dashboard.RefreshMinSeconds) * time.Second,
		RefreshMaxDelay: time.Duration(cfg.Dashboard.RefreshMaxSeconds) * time.Second,
	})
}

const snapshotCacheKey = "dashboard:current"

func newRouter(svc *dashboard.Service, ref *refresher.Refresher, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.LoadCached(r.Context(), snapshotCacheKey)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		out := map[string]any{"service": svc.Stats()}
		if ref != nil {
			out["refresher"] = ref.Stats()
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	r.Post("/refresh", func(w http.ResponseWriter, r *http.Request) {
		if ref == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		ref.Trigger()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"scheduled"}`))
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Avoid dumping secrets; show only operational settings.
		out := map[string]any{
			"tripConcurrency":           cfg.Dashboard.TripConcurrency,
			"tripAttempts":              cfg.Dashboard.TripAttempts,
			"apiRateLimitPerMinute":     cfg.Dashboard.APIRateLimitPerMinute,
			"reportPollIntervalSeconds": cfg.Dashboard.ReportPollIntervalSeconds,
			"reportMaxPolls":            cfg.Dashboard.ReportMaxPolls,
			"snapshotTTLSeconds":        cfg.Dashboard.SnapshotTTLSeconds,
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	return r
}

type dashboardAPIOpts struct {
	httpAddr string
	onListen func(httpAddr string)
}

func runDashboardAPI(ctx context.Context, opts dashboardAPIOpts, svc *dashboard.Service, ref *refresher.Refresher, cfg *config.Config) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8080"
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	if ref != nil {
		go func() {
			_ = ref.Run(ctx)
		}()
	}

	srv := &http.Server{Handler: newRouter(svc, ref, cfg)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	return srv.Serve(lis)
}
