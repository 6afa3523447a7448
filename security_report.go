package jwtauth

import (
	"crypto/rsa"
	"time"

	"github.com/MrEthical07/jwtauth/storage"
	gjwt "github.com/golang-jwt/jwt/v5"
)

// SecurityReport summarizes the posture of a running Service. It holds no key material.
type SecurityReport struct {
	SigningAlgorithm       string
	AccessTTL              time.Duration
	RefreshTTL             time.Duration
	PrivateKeyLoaded       bool
	PublicKeyLoaded        bool
	PublicKeyBits          int
	StorageBackend         string
	ReplayProtectionActive bool
	RefreshThrottleActive  bool
	MaxRefreshAttempts     int
	RefreshCooldown        time.Duration
	AuditEnabled           bool
	MetricsEnabled         bool
}

// Storage backend names reported by SecurityReport.
const (
	StorageBackendNone   = "none"
	StorageBackendMemory = "memory"
	StorageBackendRedis  = "redis"
	StorageBackendCustom = "custom"
)

// SecurityReport returns a snapshot of the current configuration.
func (s *Service) SecurityReport() SecurityReport {
	if s == nil {
		return SecurityReport{}
	}

	s.mu.RLock()
	opts := s.options
	priv, pub := len(s.privateKey) > 0, s.publicKey
	store := s.store
	s.mu.RUnlock()

	r := SecurityReport{
		SigningAlgorithm:       gjwt.SigningMethodRS256.Alg(),
		AccessTTL:              time.Duration(opts.TokenExpirationInSeconds) * time.Second,
		RefreshTTL:             time.Duration(opts.RefreshTokenExpirationInSeconds) * time.Second,
		PrivateKeyLoaded:       priv,
		PublicKeyLoaded:        len(pub) > 0,
		StorageBackend:         storageBackend(store),
		ReplayProtectionActive: store != nil,
		RefreshThrottleActive:  s.rateLimiter != nil,
		AuditEnabled:           s.audit != nil,
		MetricsEnabled:         s.metrics.Enabled(),
	}
	if len(pub) > 0 {
		if key, err := gjwt.ParseRSAPublicKeyFromPEM(pub); err == nil {
			r.PublicKeyBits = rsaBits(key)
		}
	}
	if s.rateLimiter != nil {
		r.MaxRefreshAttempts = s.security.MaxRefreshAttempts
		r.RefreshCooldown = s.security.RefreshCooldownDuration
	}
	return r
}

func storageBackend(m storage.Manager) string {
	switch m.(type) {
	case nil:
		return StorageBackendNone
	case *storage.MemoryStore:
		return StorageBackendMemory
	case *storage.RedisStore:
		return StorageBackendRedis
	default:
		return StorageBackendCustom
	}
}

func rsaBits(key *rsa.PublicKey) int {
	if key == nil || key.N == nil {
		return 0
	}
	return key.N.BitLen()
}
