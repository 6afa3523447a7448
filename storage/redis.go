package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default Redis settings.
const (
	DefaultKeyPrefix    = "fwsp-jwt-auth-token"
	DefaultHost         = "localhost"
	DefaultPort         = 6379
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

const (
	markStatusUsed   int64 = 0
	markStatusMarked int64 = 1
)

// markUsedLua atomically performs GET→compare→SET on a used-token marker.
// KEYS[1] = marker key
// ARGV[1] = token hash (stored as the marker value)
// ARGV[2] = TTL in seconds
//
// Returns 0 when the marker already holds the hash, 1 after writing it.
var markUsedLua = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current == ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'EX', tonumber(ARGV[2]))
return 1
`)

// RedisConfig holds connection settings for [RedisStore].
type RedisConfig struct {
	Host     string
	Port     int
	DB       int
	Username string
	Password string

	// KeyPrefix namespaces markers from other consumers of the same Redis.
	KeyPrefix string

	// Timeouts (defaults: Dial=5s, Read=3s, Write=3s).
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns host:port with defaults applied.
func (c RedisConfig) Addr() string {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (c RedisConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.New("redis port out of range")
	}
	if c.DB < 0 {
		return errors.New("redis db index must be >= 0")
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.New("redis timeouts must be >= 0")
	}
	return nil
}

// RedisStore is the persistent [Manager] backed by a shared Redis.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore dials Redis with cfg and verifies connectivity.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid redis configuration: %w", err)
	}

	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		DB:           cfg.DB,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: failed to connect to redis: %v", ErrStorageUnavailable, err)
	}

	return NewRedisStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreWithClient wraps an existing client. An empty prefix selects
// [DefaultKeyPrefix].
func NewRedisStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       UsedTokenTTL,
	}
}

// IsTokenUsed implements [Manager]. A marker counts as used only when its value equals
// the hash.
func (s *RedisStore) IsTokenUsed(ctx context.Context, hash string) (string, error) {
	value, err := s.client.Get(ctx, s.key(hash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return hash, nil
		}
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if value == hash {
		return "", ErrTokenAlreadyUsed
	}
	return hash, nil
}

// MarkTokenUsed implements [Manager]. The check and the write run as one script.
func (s *RedisStore) MarkTokenUsed(ctx context.Context, hash string) error {
	ttlSeconds := int64(s.ttl / time.Second)
	status, err := markUsedLua.Run(ctx, s.client, []string{s.key(hash)}, hash, ttlSeconds).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	switch status {
	case markStatusMarked:
		return nil
	case markStatusUsed:
		return ErrTokenAlreadyUsed
	default:
		return fmt.Errorf("%w: unexpected mark status %d", ErrStorageUnavailable, status)
	}
}

// Ping checks Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// KeyPrefix returns the namespace used for markers.
func (s *RedisStore) KeyPrefix() string {
	return s.keyPrefix
}

func (s *RedisStore) key(hash string) string {
	return s.keyPrefix + ":" + hash
}
