package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"atelier/internal/platform/config"
	"atelier/internal/platform/logger"
	id "atelier/pkg/domain"
)

// newTokenCmd mints an access token with the configured shared secret, for
// calling the API locally without the hosted auth service.
func newTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("token minting is disabled in production")
			}
			if cfg.Auth.JWKSURL != "" {
				return errors.New("token minting needs JWT_SECRET, not JWKS_URL")
			}
			tokens, err := buildTokenService(cmd.Context(), cfg, logger.New(cfg.Server.LogLevel))
			if err != nil {
				return err
			}

			uid := id.UserID(uuid.New())
			if userID != "" {
				if uid, err = id.ParseUserID(userID); err != nil {
					return err
				}
			}
			token, err := tokens.GenerateAccessToken(uid, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user UUID (random when empty)")
	cmd.Flags().StringVar(&email, "email", "dev@example.com", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
