package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meshgate/meshgate/observer/internal/client"
	"github.com/meshgate/meshgate/pkg/types"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "gateway WebSocket endpoint")
	retry := flag.Duration("retry", client.DefaultRetryDelay, "fixed delay between reconnection attempts")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("observer starting", "url", *url, "retry", *retry)

	c := client.New(*url, *retry, func(msg types.BroadcastMessage) {
		counts := map[types.Status]int{}
		for _, m := range msg.Machines {
			counts[m.Status]++
		}
		slog.Info("state received",
			"type", msg.Type,
			"machines", len(msg.Machines),
			"alerts", len(msg.Alerts),
			"ok", counts[types.StatusOK],
			"warning", counts[types.StatusWarning],
			"critical", counts[types.StatusCritical],
			"offline", counts[types.StatusOffline],
		)
	})
	c.Start()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// SIGHUP forces an immediate reconnect, cancelling any pending retry.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			slog.Info("manual reconnect requested")
			c.Reconnect()
		}
	}()

	// Periodically report connection state so a silent gateway is visible.
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				slog.Info("observer state", "state", c.State().String())
			}
		}
	}()

	<-ctx.Done()
	slog.Info("observer shutting down")
	c.Close() //nolint:errcheck
}
