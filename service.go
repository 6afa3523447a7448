package jwtauth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrEthical07/jwtauth/internal/flows"
	"github.com/MrEthical07/jwtauth/internal/rate"
	"github.com/MrEthical07/jwtauth/jwt"
	"github.com/MrEthical07/jwtauth/refresh"
	"github.com/MrEthical07/jwtauth/storage"
	"go.uber.org/zap"
)

// Service issues, verifies and refreshes tokens. Build one with [New].
//
// Options, keys and the storage manager may be replaced at any time; every operation
// reads a consistent snapshot of them under a read lock.
type Service struct {
	mu         sync.RWMutex
	options    Options
	privateKey []byte
	publicKey  []byte
	store      storage.Manager

	codec       *jwt.Codec
	now         func() time.Time
	newID       func() string
	logger      *zap.Logger
	metrics     *Metrics
	audit       *auditDispatcher
	rateLimiter *rate.Limiter
	security    SecurityConfig
	flows       flows.Deps
}

// Close flushes pending audit events. The storage manager is owned by the caller and is
// not closed.
func (s *Service) Close() {
	if s == nil {
		return
	}
	if s.audit != nil {
		s.audit.Close()
	}
	_ = s.logger.Sync()
}

// AuditDropped returns how many audit events were dropped because the buffer was full.
func (s *Service) AuditDropped() uint64 {
	if s == nil || s.audit == nil {
		return 0
	}
	return s.audit.Dropped()
}

// MetricsSnapshot returns the current counters, empty when metrics are disabled.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	if s == nil || s.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return s.metrics.Snapshot()
}

func (s *Service) metricInc(id MetricID) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.Inc(id)
}

// Init merges the positive fields of opts into the current options. Tokens created
// afterwards use the merged values; tokens already issued are unaffected.
func (s *Service) Init(opts Options) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.options = s.options.merge(opts)
	s.mu.Unlock()
}

// Options returns the current token lifetimes.
func (s *Service) Options() Options {
	if s == nil {
		return Options{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options
}

// PrivateKey returns a copy of the loaded private key PEM, or nil.
func (s *Service) PrivateKey() []byte {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBytes(s.privateKey)
}

// PublicKey returns a copy of the loaded public key PEM, or nil.
func (s *Service) PublicKey() []byte {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBytes(s.publicKey)
}

// SetTokenStorageManager replaces the used-token store. Passing nil disables
// single-use enforcement for subsequent refreshes.
func (s *Service) SetTokenStorageManager(m storage.Manager) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.store = m
	s.mu.Unlock()
}

func (s *Service) tokenStore() storage.Manager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

func (o Options) lifetime(typ TokenType) (time.Duration, error) {
	switch typ {
	case TokenAccess:
		return time.Duration(o.TokenExpirationInSeconds) * time.Second, nil
	case TokenRefresh:
		return time.Duration(o.RefreshTokenExpirationInSeconds) * time.Second, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidTokenType, int(typ))
	}
}

// CreateToken signs payload as a token of type typ expiring after the lifetime configured
// for that type. The reserved claims issuer, exp, token_type and jti always carry the
// service's values; payload fields with those names are overwritten. It fails with
// [ErrNotConfigured] when no private key is loaded, [ErrInvalidTokenType] for an unknown
// type and [ErrSigning] when the key cannot sign.
func (s *Service) CreateToken(ctx context.Context, payload map[string]any, typ TokenType) (string, error) {
	if s == nil {
		return "", ErrServiceNotReady
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	privateKey := s.privateKey
	opts := s.options
	s.mu.RUnlock()

	if len(privateKey) == 0 {
		s.metricInc(MetricTokenIssueFailure)
		return "", fmt.Errorf("%w: private key not loaded", ErrNotConfigured)
	}

	lifetime, err := opts.lifetime(typ)
	if err != nil {
		s.metricInc(MetricTokenIssueFailure)
		return "", err
	}

	id := s.newID()
	claims := jwt.NewClaims(payload, typ, s.now().Add(lifetime), id)
	token, err := s.codec.Sign(claims, privateKey)
	if err != nil {
		s.metricInc(MetricTokenIssueFailure)
		s.logger.Error("token signing failed", zap.Stringer("token_type", typ), zap.Error(err))
		s.emitAudit(ctx, auditEventTokenIssueFailure, false, auditSubject{tokenType: typ.String(), tokenID: id}, err, nil)
		return "", err
	}

	if typ == TokenRefresh {
		s.metricInc(MetricTokenIssuedRefresh)
	} else {
		s.metricInc(MetricTokenIssuedAccess)
	}
	return token, nil
}

// CreateAccessToken is CreateToken with [TokenAccess].
func (s *Service) CreateAccessToken(ctx context.Context, payload map[string]any) (string, error) {
	return s.CreateToken(ctx, payload, TokenAccess)
}

// CreateRefreshToken is CreateToken with [TokenRefresh].
func (s *Service) CreateRefreshToken(ctx context.Context, payload map[string]any) (string, error) {
	return s.CreateToken(ctx, payload, TokenRefresh)
}

// VerifyToken checks the signature and expiry of token and returns its claims. It does
// not consult the used-token store, so a consumed refresh token still verifies until
// it expires.
//
// It fails with [ErrNotConfigured] when no public key is loaded; every other failure is
// a *[VerificationError] whose Reason is signature-invalid, expired or malformed.
func (s *Service) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	publicKey := s.publicKey
	s.mu.RUnlock()

	if len(publicKey) == 0 {
		s.metricInc(MetricVerifyFailure)
		return nil, fmt.Errorf("%w: public key not loaded", ErrNotConfigured)
	}

	var start time.Time
	if s.metrics.LatencyEnabled() {
		start = time.Now()
	}

	claims, err := s.codec.Verify(token, publicKey)

	if !start.IsZero() {
		s.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}
	s.recordVerify(err)

	return claims, err
}

func (s *Service) recordVerify(err error) {
	if err == nil {
		s.metricInc(MetricVerifySuccess)
		return
	}
	s.metricInc(MetricVerifyFailure)

	reason, _ := ReasonOf(err)
	switch reason {
	case ReasonExpired:
		s.metricInc(MetricVerifyExpired)
	case ReasonSignatureInvalid:
		s.metricInc(MetricVerifySignatureInvalid)
	case ReasonMalformed:
		s.metricInc(MetricVerifyMalformed)
	}
}

// GetTokenHash returns the 40-character SHA-1 hex digest of token.
func (s *Service) GetTokenHash(token string) string {
	return refresh.Hash(token)
}

// CheckIfRefreshTokenUsed returns the hash of token when it has not been consumed and
// [ErrTokenAlreadyUsed] when it has. Without a storage manager every token reports
// unused.
func (s *Service) CheckIfRefreshTokenUsed(ctx context.Context, token string) (string, error) {
	if s == nil {
		return "", ErrServiceNotReady
	}

	hash := refresh.Hash(token)
	store := s.tokenStore()
	if store == nil {
		return hash, nil
	}
	return store.IsTokenUsed(ctx, hash)
}

// MarkRefreshTokenUsed records hash as consumed. Marking the same hash twice fails with
// [ErrTokenAlreadyUsed]; anything [GetTokenHash] could not have produced fails with
// [ErrInvalidTokenHash]. Without a storage manager it is a no-op.
func (s *Service) MarkRefreshTokenUsed(ctx context.Context, hash string) error {
	if s == nil {
		return ErrServiceNotReady
	}
	if !refresh.ValidHash(hash) {
		return ErrInvalidTokenHash
	}

	store := s.tokenStore()
	if store == nil {
		return nil
	}
	return store.MarkTokenUsed(ctx, hash)
}
