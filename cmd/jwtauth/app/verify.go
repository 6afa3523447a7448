package app

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrEthical07/jwtauth"
)

func newVerifyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verify a token and print its claims as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := tokenArg(args)
			if err != nil {
				return err
			}

			svc, cleanup, err := c.newService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			claims, err := svc.VerifyToken(cmd.Context(), token)
			if err != nil {
				if reason, ok := jwtauth.ReasonOf(err); ok {
					c.logger.Debug("verification failed", zap.String("reason", string(reason)))
				}
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(claims)
		},
	}
}
