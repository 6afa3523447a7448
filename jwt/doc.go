// Package jwt signs and verifies RS256 tokens carrying caller payload plus the reserved
// issuer, exp, token_type and jti claims.
//
// The package is a thin contract over github.com/golang-jwt/jwt/v5: it owns claim
// encoding and error classification, not cryptography.
//
// # What this package must NOT do
//
//   - Read key files or hold key state between calls.
//   - Track refresh-token usage or run the refresh protocol.
package jwt
