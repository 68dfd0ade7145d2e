package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"atelier/internal/platform/config"
	"atelier/internal/platform/logger"
	"atelier/internal/platform/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Server.LogLevel)

			db, err := postgres.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("DATABASE_URL is required to migrate")
			}
			defer db.Close()

			applied, err := postgres.Apply(cmd.Context(), db, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}
}
