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
	"github.com/vncsmyrnk/evote/internal/adapters/relayclient"
	"github.com/vncsmyrnk/evote/internal/adapters/seed"
	"github.com/vncsmyrnk/evote/internal/config"
	"github.com/vncsmyrnk/evote/internal/core/ports"
	"github.com/vncsmyrnk/evote/internal/core/services"
)

var serveFlags = struct {
	migrate bool
}{}

func serveRun(cmd *cobra.Command, cfg *config.Config) error {
	logger := commonRun()
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, serveFlags.migrate, logger)
	if err != nil {
		return err
	}
	defer st.close()

	if cfg.SeedFile != "" {
		if err := seed.LoadFile(ctx, cfg.SeedFile, st.seeder, logger); err != nil {
			return err
		}
	}
	if cfg.JWTSecret == "" {
		logger.Warn("no JWT secret configured, admin endpoints will reject every request")
	}

	reg := newRegistry()
	server := &http.Server{Addr: cfg.HTTPAddr, ReadHeaderTimeout: 10 * time.Second}

	var (
		publisher ports.SnapshotPublisher
		live      *api.LiveHandler
	)
	switch cfg.RelayMode {
	case config.RelayEmbedded:
		broker, err := relay.NewBroker(relay.Options{
			QueueSize:        cfg.RelayQueueSize,
			SubscriberBuffer: cfg.RelaySubscriberBuffer,
			Logger:           logger,
			PromRegistry:     reg,
		})
		if err != nil {
			return err
		}
		// Closing subscriptions ends open streams so Shutdown can finish.
		server.RegisterOnShutdown(broker.Stop)
		defer broker.Stop()
		publisher = broker
		live = api.NewLiveHandler(broker, cfg.RelayHeartbeat, logger)
	case config.RelayRemote:
		p := relayclient.NewPublisher(relayclient.Options{
			BaseURL:   cfg.RelayURL,
			Token:     cfg.RelayToken,
			QueueSize: cfg.RelayQueueSize,
			Timeout:   cfg.RelayTimeout,
			Logger:    logger,
		})
		defer p.Stop()
		publisher = p
	case config.RelayOff:
		logger.Info("live results disabled")
	}

	snapshots := services.NewSnapshotService(st.elections, st.ballots, services.SnapshotOptions{
		Timeout: cfg.SnapshotTimeout,
		Logger:  logger,
	})
	admission := services.NewAdmissionService(st.voters, st.elections, st.ballots, snapshots, publisher, services.AdmissionOptions{
		StoreTimeout:    cfg.StoreTimeout,
		SnapshotTimeout: cfg.SnapshotTimeout,
		Logger:          logger,
		PromRegistry:    reg,
	})
	elections := services.NewElectionService(st.elections, st.lifecycle, logger)

	server.Handler = api.NewHandler(api.Handlers{
		Votes:     api.NewVoteHandler(admission, logger),
		Results:   api.NewResultsHandler(snapshots, logger),
		Elections: api.NewElectionHandler(elections, logger),
		Live:      live,
		Tokens:    services.NewTokenService(cfg.JWTSecret),
		Gatherer:  reg,
		Logger:    logger,
	})

	return runServer(ctx, server, cfg.ShutdownTimeout, logger)
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the voting API",
		Run: func(cmd *cobra.Command, args []string) {
			if err := serveRun(cmd, configOrExit(cmd)); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().BoolVar(&serveFlags.migrate, "migrate", true, "apply pending postgres migrations on start")
	return cmd
}
