package jwt

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the fixed value of the issuer claim.
const Issuer = "urn:auth"

// Reserved claim names. Caller payload fields with these names are overwritten.
const (
	ClaimIssuer    = "issuer"
	ClaimExpiresAt = "exp"
	ClaimTokenType = "token_type"
	ClaimID        = "jti"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType int

const (
	// TokenUnknown marks claims that carried no usable token_type.
	TokenUnknown TokenType = -1
	// TokenAccess is a short-lived credential for API calls.
	TokenAccess TokenType = 0
	// TokenRefresh is a single-use credential exchanged for new tokens.
	TokenRefresh TokenType = 1
)

func (t TokenType) String() string {
	switch t {
	case TokenAccess:
		return "access"
	case TokenRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Valid reports whether t is TokenAccess or TokenRefresh.
func (t TokenType) Valid() bool {
	return t == TokenAccess || t == TokenRefresh
}

// IsReserved reports whether name is one of the reserved claim names.
func IsReserved(name string) bool {
	switch name {
	case ClaimIssuer, ClaimExpiresAt, ClaimTokenType, ClaimID:
		return true
	default:
		return false
	}
}

// Claims is the decoded body of a token: named reserved claims plus an open map of
// caller-supplied fields.
type Claims struct {
	Issuer    string
	ExpiresAt int64
	TokenType TokenType
	ID        string

	// Extra holds caller payload fields. Reserved names never appear here after decoding
	// and are ignored when encoding.
	Extra map[string]any
}

// NewClaims builds claims from a caller payload. Reserved names in payload are dropped in
// favor of the explicit arguments.
func NewClaims(payload map[string]any, typ TokenType, expiresAt time.Time, id string) *Claims {
	c := &Claims{
		Issuer:    Issuer,
		ExpiresAt: expiresAt.Unix(),
		TokenType: typ,
		ID:        id,
		Extra:     make(map[string]any, len(payload)),
	}
	for k, v := range payload {
		if IsReserved(k) {
			continue
		}
		c.Extra[k] = v
	}
	return c
}

// Payload returns a copy of the caller fields.
func (c *Claims) Payload() map[string]any {
	out := make(map[string]any, len(c.Extra))
	for k, v := range c.Extra {
		out[k] = v
	}
	return out
}

// Get returns a claim by wire name, reserved names included.
func (c *Claims) Get(name string) (any, bool) {
	switch name {
	case ClaimIssuer:
		return c.Issuer, true
	case ClaimExpiresAt:
		return c.ExpiresAt, true
	case ClaimTokenType:
		return c.TokenType, true
	case ClaimID:
		return c.ID, c.ID != ""
	}
	v, ok := c.Extra[name]
	return v, ok
}

// Expiry returns ExpiresAt as a time.
func (c *Claims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// MarshalJSON writes Extra first and the reserved claims last, so reserved names always
// win on collision.
func (c Claims) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+4)
	for k, v := range c.Extra {
		out[k] = v
	}
	out[ClaimIssuer] = c.Issuer
	out[ClaimExpiresAt] = c.ExpiresAt
	out[ClaimTokenType] = int(c.TokenType)
	delete(out, ClaimID)
	if c.ID != "" {
		out[ClaimID] = c.ID
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits a decoded token body into reserved claims and Extra.
func (c *Claims) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Claims{TokenType: TokenUnknown, Extra: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case ClaimIssuer:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("claim %q must be a string", k)
			}
			out.Issuer = s
		case ClaimExpiresAt:
			n, err := integralClaim(k, v)
			if err != nil {
				return err
			}
			out.ExpiresAt = n
		case ClaimTokenType:
			n, err := integralClaim(k, v)
			if err != nil {
				return err
			}
			if typ := TokenType(n); typ.Valid() {
				out.TokenType = typ
			}
		case ClaimID:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("claim %q must be a string", k)
			}
			out.ID = s
		default:
			out.Extra[k] = v
		}
	}

	*c = out
	return nil
}

func integralClaim(name string, v any) (int64, error) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("claim %q must be an integer", name)
	}
	return int64(f), nil
}

// GetExpirationTime implements jwt.Claims.
func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.ExpiresAt == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

// GetIssuedAt implements jwt.Claims.
func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error) { return nil, nil }

// GetNotBefore implements jwt.Claims.
func (c *Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

// GetIssuer implements jwt.Claims.
func (c *Claims) GetIssuer() (string, error) { return c.Issuer, nil }

// GetSubject implements jwt.Claims.
func (c *Claims) GetSubject() (string, error) { return "", nil }

// GetAudience implements jwt.Claims.
func (c *Claims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }
