package jwtauth

import "github.com/MrEthical07/jwtauth/jwt"

// Claims is the decoded body of a verified token.
type Claims = jwt.Claims

// TokenType distinguishes access tokens from refresh tokens.
type TokenType = jwt.TokenType

const (
	TokenAccess  = jwt.TokenAccess
	TokenRefresh = jwt.TokenRefresh
)

// RefreshResult is returned by [Service.ExecuteRefreshToken].
//
// Claims are the verified claims of the consumed refresh token. RefreshToken carries the
// same payload and token type with a new exp and jti; AccessToken carries the same
// payload as a fresh access token.
type RefreshResult struct {
	Claims       *Claims
	RefreshToken string
	AccessToken  string
}
