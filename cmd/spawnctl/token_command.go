package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"spawnwatch/internal/feature/notification/adapters/gateway"
	jwtmw "spawnwatch/internal/platform/jwt"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var (
		forGateway bool
		subject    string
		ttl        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the API (or the outbound gateway)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			secret := cfg.HTTP.JWTSecret
			if forGateway {
				secret = cfg.Gateway.Secret
				if !cmd.Flags().Changed("subject") {
					subject = gateway.TokenSubject
				}
			}
			if secret == "" {
				return errors.New("secret is not configured")
			}
			tok, err := jwtmw.NewGenerator(secret, ttl).GenerateToken(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().BoolVar(&forGateway, "gateway", false, "Sign with the gateway secret instead of the API secret")
	cmd.Flags().StringVar(&subject, "subject", "spawnctl", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
