package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"atelier/internal/platform/config"
	"atelier/internal/platform/logger"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default when no subcommand is given)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Bool("migrate", false, "apply schema migrations before serving")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogLevel)
	migrate, _ := cmd.Flags().GetBool("migrate")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, appOptions{
		providerDelay: mockProviderDelay,
		migrate:       migrate,
	})
	if err != nil {
		log.Error("failed to initialize", "error", err)
		return err
	}

	log.Info("atelier starting", "version", version)
	if err := a.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		return err
	}
	log.Info("atelier stopped")
	return nil
}
