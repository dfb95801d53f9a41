package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vncsmyrnk/evote/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/evote/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/evote/internal/adapters/repository/sqlite"
	"github.com/vncsmyrnk/evote/internal/config"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

// store bundles the repositories of whichever backend is configured.
type store struct {
	voters    ports.VoterRepository
	elections ports.ElectionRepository
	lifecycle ports.ElectionLifecycle
	ballots   ports.BallotRepository
	seeder    ports.Seeder
	close     func() error
}

func openStore(ctx context.Context, cfg *config.Config, migrate bool, logger *slog.Logger) (*store, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if migrate {
			applied, err := postgres.Migrate(ctx, db)
			if err != nil {
				db.Close()
				return nil, err
			}
			logger.Info("migrations applied", "event", "db.migrated", "count", len(applied), "migrations", applied)
		}
		return postgresStore(db), nil

	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &store{
			voters:    s.Voters(),
			elections: s.Elections(),
			lifecycle: s.Lifecycle(),
			ballots:   s.Ballots(),
			seeder:    s.Seeder(),
			close:     s.Close,
		}, nil

	case config.DriverMemory:
		logger.Warn("using the in-memory store, ballots are lost on exit")
		s := memory.NewStore()
		return &store{
			voters:    s.Voters(),
			elections: s.Elections(),
			lifecycle: s.Lifecycle(),
			ballots:   s.Ballots(),
			seeder:    s.Seeder(),
			close:     func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
}

func postgresStore(db *sql.DB) *store {
	return &store{
		voters:    postgres.NewVoterRepository(db),
		elections: postgres.NewElectionRepository(db),
		lifecycle: postgres.NewElectionLifecycle(db),
		ballots:   postgres.NewBallotRepository(db),
		seeder:    postgres.NewSeeder(db),
		close:     db.Close,
	}
}
