package jwtauth

import (
	"errors"
	"time"

	"github.com/MrEthical07/jwtauth/internal/rate"
	"github.com/MrEthical07/jwtauth/jwt"
	"github.com/MrEthical07/jwtauth/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles a [Service]. A Builder is single-use: Build fails on the second call.
type Builder struct {
	config Config
	store  storage.Manager
	redis  redis.UniversalClient
	logger *zap.Logger
	now    func() time.Time

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithOptions sets the token lifetimes.
func (b *Builder) WithOptions(opts Options) *Builder {
	b.config.Options = opts
	return b
}

// WithKeyPair sets inline PEM keys. Either may be nil.
func (b *Builder) WithKeyPair(privatePEM, publicPEM []byte) *Builder {
	b.config.Keys.PrivateKey = cloneBytes(privatePEM)
	b.config.Keys.PublicKey = cloneBytes(publicPEM)
	return b
}

// WithKeyFiles sets PEM file paths loaded during Build. Empty paths are skipped.
func (b *Builder) WithKeyFiles(privatePath, publicPath string) *Builder {
	b.config.Keys.PrivateKeyPath = privatePath
	b.config.Keys.PublicKeyPath = publicPath
	return b
}

// WithStorage sets the used-token store. Without one, refresh tokens are not single-use.
func (b *Builder) WithStorage(m storage.Manager) *Builder {
	b.store = m
	return b
}

// WithRedis supplies the client backing the refresh throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source used for exp and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, loads key files named in Config.Keys and starts the
// audit dispatcher when audit is enabled. It returns an error for invalid settings,
// unreadable key files (wrapping [ErrKeyRead]) or a refresh throttle without Redis.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Security.EnableRefreshThrottle && b.redis == nil {
		return nil, errors.New("refresh throttle requires redis client")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	svc := &Service{
		options:    cfg.Options,
		privateKey: cfg.Keys.PrivateKey,
		publicKey:  cfg.Keys.PublicKey,
		store:      b.store,
		codec:      jwt.NewCodec(jwt.WithTimeFunc(now)),
		now:        now,
		newID:      uuid.NewString,
		logger:     logger,
		metrics:    NewMetrics(cfg.Metrics),
		security:   cfg.Security,
	}

	// Inline bytes win; paths only fill the halves still empty.
	var privatePath, publicPath string
	if len(svc.privateKey) == 0 {
		privatePath = cfg.Keys.PrivateKeyPath
	}
	if len(svc.publicKey) == 0 {
		publicPath = cfg.Keys.PublicKeyPath
	}
	if err := svc.LoadKeys(privatePath, publicPath); err != nil {
		return nil, err
	}

	if cfg.Security.EnableRefreshThrottle {
		svc.rateLimiter = rate.New(b.redis, rate.Config{
			KeyPrefix:               cfg.Security.RateLimitPrefix,
			MaxRefreshAttempts:      cfg.Security.MaxRefreshAttempts,
			RefreshCooldownDuration: cfg.Security.RefreshCooldownDuration,
		})
	}

	svc.audit = newAuditDispatcher(cfg.Audit, b.auditSink, logger)
	svc.flows = svc.buildFlowDeps()

	b.built = true

	return svc, nil
}
