package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/jwtauth/refresh"
)

func newHashCmd(_ *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "hash TOKEN",
		Short: "Print the used-token store key for a refresh token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := tokenArg(args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), refresh.Hash(token))
			return err
		},
	}
}
