package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrEthical07/jwtauth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newIssueCmd(c *cli) *cobra.Command {
	var (
		typ    string
		claims string
		pairs  []string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a new access or refresh token",
		Example: `  jwtauth issue --private-key priv.pem --type refresh --claims '{"sub":"u-1"}'
  jwtauth issue --private-key priv.pem --claim sub=u-1 --claim role=admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokenType, err := parseTokenType(typ)
			if err != nil {
				return err
			}
			payload, err := parsePayload(claims, pairs)
			if err != nil {
				return err
			}

			svc, cleanup, err := c.newService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			token, err := svc.CreateToken(cmd.Context(), payload, tokenType)
			if err != nil {
				return err
			}
			c.logger.Debug("token issued", zap.String("token_type", tokenType.String()), zap.Int("claims", len(payload)))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&typ, "type", "access", "token type: access or refresh")
	cmd.Flags().StringVar(&claims, "claims", "", "payload as a JSON object")
	cmd.Flags().StringArrayVar(&pairs, "claim", nil, "payload field as key=value; may be repeated")
	return cmd
}

func parseTokenType(s string) (jwtauth.TokenType, error) {
	switch strings.ToLower(s) {
	case "access", "":
		return jwtauth.TokenAccess, nil
	case "refresh":
		return jwtauth.TokenRefresh, nil
	default:
		return jwtauth.TokenAccess, fmt.Errorf("%w: %q", jwtauth.ErrInvalidTokenType, s)
	}
}

// parsePayload merges a JSON object with key=value pairs; pairs win on collision.
func parsePayload(raw string, pairs []string) (map[string]any, error) {
	payload := map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, fmt.Errorf("parse --claims: %w", err)
		}
	}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --claim %q, want key=value", p)
		}
		payload[k] = v
	}
	return payload, nil
}
