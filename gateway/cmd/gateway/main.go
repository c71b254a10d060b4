package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/meshgate/meshgate/gateway/internal/api"
	"github.com/meshgate/meshgate/gateway/internal/config"
	"github.com/meshgate/meshgate/gateway/internal/ingest"
	"github.com/meshgate/meshgate/gateway/internal/ledger"
	"github.com/meshgate/meshgate/gateway/internal/liveness"
	"github.com/meshgate/meshgate/gateway/internal/metrics"
	"github.com/meshgate/meshgate/gateway/internal/state"
	"github.com/meshgate/meshgate/gateway/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	watch := flag.Bool("watch-config", true, "hot-reload threshold levels when the config file changes")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("meshgate starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Gateway.HTTPPort,
		"mqtt_enabled", cfg.Gateway.MQTT.Enabled(),
		"offline_timeout", cfg.Gateway.OfflineTimeout,
		"sweep_period", cfg.Gateway.SweepPeriod,
		"alert_capacity", cfg.Gateway.AlertCapacity,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	counters := metrics.NewCounters()
	table := state.New()
	led := ledger.New(cfg.Gateway.AlertCapacity)

	// Broadcast hub — full-state snapshot on connect, update on mutation.
	hub := ws.New(table, led, counters)
	go hub.Run(ctx)

	// Single-writer pipeline shared by the mesh source, the HTTP ingestion
	// endpoint, and the liveness sweep.
	pipe := ingest.NewPipeline(table, led, hub, cfg.Gateway.Thresholds.Thresholds(), counters)

	// Liveness monitor — demotes silent machines to offline.
	monitor := liveness.New(pipe, cfg.Gateway.OfflineTimeout, cfg.Gateway.SweepPeriod)
	go monitor.Run(ctx)

	// Mesh transport source. A missing broker is a fatal misconfiguration
	// only if one was configured; with no broker the gateway runs HTTP-only.
	if cfg.Gateway.MQTT.Enabled() {
		source := ingest.NewMQTTSource(cfg.Gateway.MQTT, pipe)
		if err := source.Start(); err != nil {
			slog.Error("failed to connect to mesh broker", "err", err)
			os.Exit(1)
		}
		defer source.Stop()
	} else {
		slog.Info("no mesh broker configured — HTTP ingestion only")
	}

	// Hot threshold reload.
	if *watch {
		go func() {
			if err := config.Watch(ctx, *configPath, func(next *config.Config) {
				pipe.SetThresholds(next.Gateway.Thresholds.Thresholds())
			}); err != nil {
				slog.Error("config watch stopped", "err", err)
			}
		}()
	}

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(table, led, pipe))
	httpMux.Handle("/ws", hub)
	httpMux.Handle("/metrics", counters.Handler())

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Gateway.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Gateway.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("meshgate shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
