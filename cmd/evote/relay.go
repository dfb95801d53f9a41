package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	api "github.com/vncsmyrnk/evote/internal/adapters/handler/http"
	"github.com/vncsmyrnk/evote/internal/adapters/relay"
	"github.com/vncsmyrnk/evote/internal/config"
	"github.com/vncsmyrnk/evote/internal/core/services"
)

func relayRun(cmd *cobra.Command, cfg *config.Config) error {
	logger := commonRun()
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RelayToken == "" {
		logger.Warn("no relay token configured, snapshot ingest is unauthenticated")
	}

	reg := newRegistry()
	broker, err := relay.NewBroker(relay.Options{
		QueueSize:        cfg.RelayQueueSize,
		SubscriberBuffer: cfg.RelaySubscriberBuffer,
		Logger:           logger,
		PromRegistry:     reg,
	})
	if err != nil {
		return err
	}
	defer broker.Stop()

	server := &http.Server{
		Addr:              cfg.RelayAddr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: api.NewRelayHandler(
			api.NewLiveHandler(broker, cfg.RelayHeartbeat, logger),
			services.NewTokenService(cfg.JWTSecret),
			cfg.RelayToken,
			reg,
			logger,
		),
	}
	server.RegisterOnShutdown(broker.Stop)

	return runServer(ctx, server, cfg.ShutdownTimeout, logger)
}

func relayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Run the live results relay",
		Run: func(cmd *cobra.Command, args []string) {
			if err := relayRun(cmd, configOrExit(cmd)); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
}
