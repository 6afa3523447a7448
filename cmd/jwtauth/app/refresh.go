package app

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrEthical07/jwtauth"
)

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func newRefreshCmd(c *cli) *cobra.Command {
	var clientIP string

	cmd := &cobra.Command{
		Use:   "refresh TOKEN",
		Short: "Exchange a refresh token for a new token pair",
		Long: `Consume a refresh token and print a new access and refresh token as JSON.

Without --redis-addr the used-token store lives only for this process, so a replayed
token is not detected across invocations.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := tokenArg(args)
			if err != nil {
				return err
			}

			if c.v.GetString(keyRedisAddr) == "" {
				c.logger.Warn("no redis address set; replay protection is process-local")
			}

			svc, cleanup, err := c.newService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			if clientIP != "" {
				ctx = jwtauth.WithClientIP(ctx, clientIP)
			}
			res, err := svc.ExecuteRefreshToken(ctx, token)
			if err != nil {
				return err
			}
			c.logger.Debug("refresh exchanged", zap.String("jti", res.Claims.ID))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken})
		},
	}

	cmd.Flags().StringVar(&clientIP, "client-ip", "", "client address recorded in audit events")
	return cmd
}
