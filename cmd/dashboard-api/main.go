package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/KnyazhevAlex/dashboards/config"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	if cfg.GMAPI.Mode != "fake" && cfg.GMAPI.Hash == "" {
		panic("gmapi.hash is required (or set gmapi.mode: fake)")
	}

	svc := buildService(cfg, defaultFactories())
	ref := buildRefresher(cfg, svc)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := dashboardAPIOpts{
		httpAddr: cfg.Dashboard.HTTPAddr,
		onListen: func(addr string) {
			slog.Info("dashboard API listening", "addr", addr)
		},
	}
	if err := runDashboardAPI(ctx, opts, svc, ref, cfg); err != nil && err != context.Canceled && err != http.ErrServerClosed {
		panic(err)
	}
}
