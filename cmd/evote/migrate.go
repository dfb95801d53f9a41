package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/evote/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/evote/internal/config"
)

func migrateRun(cmd *cobra.Command, args []string, cfg *config.Config) error {
	logger := commonRun()
	if cfg.DatabaseDriver != config.DriverPostgres {
		return errors.New("migrations only apply to the postgres driver")
	}
	if err := cfg.ValidateStore(); err != nil {
		return err
	}

	db, err := postgres.Open(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 1 {
		file, err := postgres.RunMigration(cmd.Context(), db, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Migration file %s executed successfully.\n", file)
		return nil
	}

	applied, err := postgres.Migrate(cmd.Context(), db)
	if err != nil {
		return err
	}
	logger.Info("migrations applied", "event", "db.migrated", "count", len(applied))
	for _, name := range applied {
		fmt.Println(name)
	}
	return nil
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [name]",
		Short: "Apply pending migrations, or run a single migration file by name",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := migrateRun(cmd, args, configOrExit(cmd)); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
}
