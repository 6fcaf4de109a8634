package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/internal/auth"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var name string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a listener token for the web front end",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.Web.JWTSecret == "" {
				return fmt.Errorf("LISTENER_JWT_SECRET is not set, listeners need no token")
			}

			token, err := auth.GenerateListenerToken([]byte(cfg.Web.JWTSecret), name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "listener", "display name stored in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultListenerTTL, "token lifetime")
	return cmd
}
