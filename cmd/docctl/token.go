package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docchat-backend/internal/shared/auth"
)

func newTokenCmd() *cobra.Command {
	var userID, email, name string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			signer, err := auth.NewJWTVerifier(cfg.JWTSecret, cfg.Env)
			if err != nil {
				return err
			}
			claims := auth.Claims{Sub: userID, Email: email, Name: name}
			if ttl > 0 {
				claims.Exp = time.Now().Add(ttl).Unix()
			}
			token, err := signer.Sign(claims)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "subject of the token")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&name, "name", "", "name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default 24h)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
