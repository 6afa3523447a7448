package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/jwtauth/jwt"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureRateLimited
	RefreshFailureVerify
	RefreshFailureWrongType
	RefreshFailureReplay
	RefreshFailureStorage
	RefreshFailureIssueRefresh
	RefreshFailureIssueAccess
)

func (k RefreshFailureKind) String() string {
	switch k {
	case RefreshFailureNone:
		return "none"
	case RefreshFailureRateLimited:
		return "rate_limited"
	case RefreshFailureVerify:
		return "verify"
	case RefreshFailureWrongType:
		return "wrong_type"
	case RefreshFailureReplay:
		return "replay"
	case RefreshFailureStorage:
		return "storage"
	case RefreshFailureIssueRefresh:
		return "issue_refresh"
	case RefreshFailureIssueAccess:
		return "issue_access"
	default:
		return "unknown"
	}
}

// RefreshResult carries either the issued token pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	ClientKey    string
	Hash         string
	Claims       *jwt.Claims
	RefreshToken string
	AccessToken  string
}

type RefreshRateLimiter interface {
	CheckRefresh(ctx context.Context, client string) error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	ClientKeyFromContext func(context.Context) string
	RateLimiter          RefreshRateLimiter
	VerifyToken          func(context.Context, string) (*jwt.Claims, error)
	HashToken            func(string) string
	CheckTokenUsed       func(context.Context, string) (string, error)
	MarkTokenUsed        func(context.Context, string) error
	IssueToken           func(context.Context, map[string]any, jwt.TokenType) (string, error)
	WrongTokenType       error
	TokenAlreadyUsed     error
}

// RunRefresh verifies a refresh token, consumes it exactly once and issues the
// replacement pair. It stops at the first failing step.
func RunRefresh(ctx context.Context, token string, deps RefreshDeps) RefreshResult {
	var client string
	if deps.ClientKeyFromContext != nil {
		client = deps.ClientKeyFromContext(ctx)
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.CheckRefresh(ctx, client); err != nil {
			return RefreshResult{
				Failure:   RefreshFailureRateLimited,
				Err:       err,
				ClientKey: client,
			}
		}
	}

	claims, err := deps.VerifyToken(ctx, token)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureVerify,
			Err:       err,
			ClientKey: client,
		}
	}

	if claims.TokenType != jwt.TokenRefresh {
		return RefreshResult{
			Failure:   RefreshFailureWrongType,
			Err:       deps.WrongTokenType,
			ClientKey: client,
			Claims:    claims,
		}
	}

	// stores report no hash for consumed tokens, so derive it here for replay reporting
	hash := deps.HashToken(token)
	if _, err := deps.CheckTokenUsed(ctx, token); err != nil {
		return storageFailure(err, deps, client, hash, claims)
	}

	if err := deps.MarkTokenUsed(ctx, hash); err != nil {
		return storageFailure(err, deps, client, hash, claims)
	}

	payload := claims.Payload()

	refreshToken, err := deps.IssueToken(ctx, payload, claims.TokenType)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureIssueRefresh,
			Err:       err,
			ClientKey: client,
			Hash:      hash,
			Claims:    claims,
		}
	}

	accessToken, err := deps.IssueToken(ctx, payload, jwt.TokenAccess)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureIssueAccess,
			Err:       err,
			ClientKey: client,
			Hash:      hash,
			Claims:    claims,
		}
	}

	return RefreshResult{
		Failure:      RefreshFailureNone,
		ClientKey:    client,
		Hash:         hash,
		Claims:       claims,
		RefreshToken: refreshToken,
		AccessToken:  accessToken,
	}
}

func storageFailure(err error, deps RefreshDeps, client, hash string, claims *jwt.Claims) RefreshResult {
	kind := RefreshFailureStorage
	if deps.TokenAlreadyUsed != nil && errors.Is(err, deps.TokenAlreadyUsed) {
		kind = RefreshFailureReplay
	}
	return RefreshResult{
		Failure:   kind,
		Err:       err,
		ClientKey: client,
		Hash:      hash,
		Claims:    claims,
	}
}
