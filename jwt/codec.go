package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm is the only accepted signing algorithm.
var Algorithm = jwt.SigningMethodRS256

// Codec signs and verifies tokens with caller-supplied PEM keys. Its only state is the
// clock used for expiry checks, so a single Codec may be shared freely.
type Codec struct {
	now func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithTimeFunc overrides the clock used to evaluate exp.
func WithTimeFunc(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec returns a Codec using time.Now unless overridden.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sign encodes claims as an RS256 token signed with privateKeyPEM.
//
// Sign returns ErrSigning when no key is supplied, the key is not an RSA private key, or
// the claims cannot be encoded.
func (c *Codec) Sign(claims *Claims, privateKeyPEM []byte) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("%w: nil claims", ErrSigning)
	}
	if len(privateKeyPEM) == 0 {
		return "", fmt.Errorf("%w: no private key configured", ErrSigning)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}

	signed, err := jwt.NewWithClaims(Algorithm, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString against publicKeyPEM and returns
// its claims.
//
// A missing or unusable public key yields ErrNotConfigured. Every other failure is a
// *VerificationError.
func (c *Codec) Verify(tokenString string, publicKeyPEM []byte) (*Claims, error) {
	if len(publicKeyPEM) == 0 {
		return nil, fmt.Errorf("%w: no public key configured", ErrNotConfigured)
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid public key: %v", ErrNotConfigured, err)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{Algorithm.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
		// one signature, one spelling: replay detection keys on the token string
		jwt.WithStrictDecoding(),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != Algorithm.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return key, nil
	})
	if err != nil {
		return nil, &VerificationError{Reason: classify(tokenString, err), Err: err}
	}
	if !token.Valid {
		return nil, &VerificationError{Reason: ReasonSignatureInvalid, Err: jwt.ErrTokenSignatureInvalid}
	}

	return claims, nil
}

func classify(tokenString string, err error) Reason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignatureInvalid
	case errors.Is(err, jwt.ErrTokenMalformed):
		if onlySignatureDamaged(tokenString) {
			return ReasonSignatureInvalid
		}
		return ReasonMalformed
	default:
		return ReasonMalformed
	}
}

// onlySignatureDamaged reports whether header and claims decode cleanly while the
// signature segment does not. Decoding is strict, matching the parser.
func onlySignatureDamaged(tokenString string) bool {
	enc := base64.RawURLEncoding.Strict()
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return false
	}
	if _, err := enc.DecodeString(parts[0]); err != nil {
		return false
	}
	if _, err := enc.DecodeString(parts[1]); err != nil {
		return false
	}
	_, err := enc.DecodeString(parts[2])
	return err != nil
}
