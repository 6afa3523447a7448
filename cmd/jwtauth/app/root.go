// Package app builds the jwtauth command tree.
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "JWTAUTH"

// Flag keys double as viper keys; JWTAUTH_PRIVATE_KEY overrides --private-key and so on.
const (
	keyConfig          = "config"
	keyDebug           = "debug"
	keyPrivateKey      = "private-key"
	keyPublicKey       = "public-key"
	keyTokenExpiration = "token-expiration"
	keyRefreshExp      = "refresh-token-expiration"
	keyRedisAddr       = "redis-addr"
	keyRedisPrefix     = "redis-prefix"
)

type cli struct {
	v      *viper.Viper
	logger *zap.Logger
}

// NewRootCmd returns a fresh command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	c := &cli{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "jwtauth",
		Short:         "Issue, verify and refresh RS256 tokens",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = c.logger.Sync()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.String(keyConfig, "", "config file (yaml, json or toml)")
	flags.Bool(keyDebug, false, "enable debug logging")
	flags.String(keyPrivateKey, "", "path to the PEM private key")
	flags.String(keyPublicKey, "", "path to the PEM public key")
	flags.Int(keyTokenExpiration, 0, "access token lifetime in seconds (0 keeps the default)")
	flags.Int(keyRefreshExp, 0, "refresh token lifetime in seconds (0 keeps the default)")
	flags.String(keyRedisAddr, "", "redis address for the used-token store")
	flags.String(keyRedisPrefix, "", "redis key prefix for used tokens")

	for _, name := range []string{keyDebug, keyPrivateKey, keyPublicKey, keyTokenExpiration, keyRefreshExp, keyRedisAddr, keyRedisPrefix} {
		if err := c.v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root.AddCommand(
		newIssueCmd(c),
		newVerifyCmd(c),
		newRefreshCmd(c),
		newHashCmd(c),
		newReportCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString(keyConfig); path != "" {
		c.v.SetConfigFile(path)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var (
		logger *zap.Logger
		err    error
	)
	if c.v.GetBool(keyDebug) {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		logger, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	c.logger = logger
	return nil
}

var errTokenArg = errors.New("expected exactly one token argument")

func tokenArg(args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", errTokenArg
	}
	return strings.TrimSpace(args[0]), nil
}
