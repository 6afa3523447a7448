package app

import (
	"context"
	"fmt"

	"github.com/MrEthical07/jwtauth"
	"github.com/MrEthical07/jwtauth/storage"
	"github.com/redis/go-redis/v9"
)

// newService builds a Service from the merged flag, env and file settings. The returned
// cleanup closes the Service and any Redis client it opened.
func (c *cli) newService(ctx context.Context) (*jwtauth.Service, func(), error) {
	cfg := jwtauth.DefaultConfig()
	cfg.Keys.PrivateKeyPath = c.v.GetString(keyPrivateKey)
	cfg.Keys.PublicKeyPath = c.v.GetString(keyPublicKey)

	b := jwtauth.New().WithConfig(cfg).WithLogger(c.logger)

	var client *redis.Client
	if addr := c.v.GetString(keyRedisAddr); addr != "" {
		client = redis.NewClient(&redis.Options{Addr: addr})
		store := storage.NewRedisStoreWithClient(client, c.v.GetString(keyRedisPrefix))
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		b.WithStorage(store)
	} else {
		b.WithStorage(storage.NewMemoryStore())
	}

	closeClient := func() {
		if client != nil {
			_ = client.Close()
		}
	}

	svc, err := b.Build()
	if err != nil {
		closeClient()
		return nil, nil, fmt.Errorf("build service: %w", err)
	}

	svc.Init(jwtauth.Options{
		TokenExpirationInSeconds:        c.v.GetInt(keyTokenExpiration),
		RefreshTokenExpirationInSeconds: c.v.GetInt(keyRefreshExp),
	})

	return svc, func() {
		svc.Close()
		closeClient()
	}, nil
}
