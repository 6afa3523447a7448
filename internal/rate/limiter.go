package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces limiter counters.
const DefaultKeyPrefix = "jwtauth"

// Config holds rate limiter tuning parameters.
type Config struct {
	KeyPrefix               string
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
}

// Limiter enforces a per-client refresh budget using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckRefresh counts one refresh attempt for client and fails with ErrRateLimited once
// the count exceeds MaxRefreshAttempts inside the current window. An empty client key is
// never throttled.
func (l *Limiter) CheckRefresh(ctx context.Context, client string) error {
	if client == "" {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, l.refreshKey(client), l.config.RefreshCooldownDuration)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRefreshAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) refreshKey(client string) string {
	return l.config.KeyPrefix + ":rr:" + client
}

// incrementScript bumps a fixed-window counter and arms its expiry on the first hit, in
// one round trip so a crash between the two steps cannot leave a counter without TTL.
var incrementScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := incrementScript.Run(ctx, l.redis, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}
