package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/evote/internal/core/services"
)

func tokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin bearer token",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configOrExit(cmd)
			token, err := services.NewTokenService(cfg.JWTSecret).Issue(subject, ttl)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			fmt.Println(token)
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
