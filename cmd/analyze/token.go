package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"analyst_backend/internal/platform/config"
	jwtmw "analyst_backend/internal/platform/jwt"
)

// newTokenCmd はAPIクライアント用のJWTを発行するコマンドを生成します。
func newTokenCmd(loadConfig func() config.Config) *cobra.Command {
	var (
		subject    string
		expiration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Long:  `token signs an HS256 bearer token with JWT_SECRET for calling the /v1 API.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := loadConfig().Server.JWTSecret
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := jwtmw.NewGenerator(secret, expiration).GenerateToken(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Client identifier stored in the sub claim")
	cmd.Flags().DurationVar(&expiration, "expiration", jwtmw.DefaultExpiration, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
