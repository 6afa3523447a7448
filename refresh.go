package jwtauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/jwtauth/internal/flows"
	"github.com/MrEthical07/jwtauth/internal/rate"
	"go.uber.org/zap"
)

func (s *Service) buildFlowDeps() flows.Deps {
	deps := flows.Deps{
		Refresh: flows.RefreshDeps{
			ClientKeyFromContext: clientIPFromContext,
			VerifyToken:          s.VerifyToken,
			HashToken:            s.GetTokenHash,
			CheckTokenUsed:       s.CheckIfRefreshTokenUsed,
			MarkTokenUsed:        s.MarkRefreshTokenUsed,
			IssueToken:           s.CreateToken,
			WrongTokenType:       ErrWrongTokenType,
			TokenAlreadyUsed:     ErrTokenAlreadyUsed,
		},
	}
	if s.rateLimiter != nil {
		deps.Refresh.RateLimiter = s.rateLimiter
	}
	return deps
}

// ExecuteRefreshToken verifies token, requires it to be a refresh token, records its
// hash as used and issues a new refresh token and access token from the same payload.
// The steps run in that order and stop at the first failure:
//
//   - verification errors are returned unchanged ([ErrNotConfigured] or *[VerificationError]);
//   - a non-refresh token yields [ErrWrongTokenType];
//   - a replayed token yields [ErrTokenAlreadyUsed];
//   - a store failure yields an error wrapping [ErrStorageUnavailable];
//   - an issuance failure after the hash was recorded ([ErrSigning], [ErrNotConfigured])
//     is returned as is, and the presented token stays consumed.
//
// When refresh throttling is enabled, a client over budget gets [ErrRefreshRateLimited]
// before any of the above. Nothing is retried.
func (s *Service) ExecuteRefreshToken(ctx context.Context, token string) (*RefreshResult, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}

	res := flows.RunRefresh(ctx, token, s.flows.Refresh)

	var subject auditSubject
	if res.Claims != nil {
		subject.tokenType = res.Claims.TokenType.String()
		subject.tokenID = res.Claims.ID
	}
	subject.tokenHash = res.Hash

	switch res.Failure {
	case flows.RefreshFailureNone:
		s.metricInc(MetricRefreshSuccess)
		s.emitAudit(ctx, auditEventRefreshSuccess, true, subject, nil, nil)
		s.logger.Debug("refresh token exchanged", zap.String("token_hash", res.Hash))
		return &RefreshResult{
			Claims:       res.Claims,
			RefreshToken: res.RefreshToken,
			AccessToken:  res.AccessToken,
		}, nil

	case flows.RefreshFailureRateLimited:
		if errors.Is(res.Err, rate.ErrRateLimited) {
			s.metricInc(MetricRefreshRateLimited)
			s.emitAudit(ctx, auditEventRefreshRateLimited, false, subject, ErrRefreshRateLimited, func() map[string]string {
				return map[string]string{
					"client": res.ClientKey,
				}
			})
			return nil, ErrRefreshRateLimited
		}
		err := fmt.Errorf("%w: refresh throttle: %v", ErrStorageUnavailable, res.Err)
		s.storageFailed(ctx, subject, err, "rate_limit")
		return nil, err

	case flows.RefreshFailureVerify:
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, auditEventRefreshInvalid, false, subject, res.Err, nil)
		return nil, res.Err

	case flows.RefreshFailureWrongType:
		s.metricInc(MetricRefreshFailure)
		s.metricInc(MetricRefreshWrongType)
		s.emitAudit(ctx, auditEventRefreshWrongType, false, subject, ErrWrongTokenType, nil)
		return nil, ErrWrongTokenType

	case flows.RefreshFailureReplay:
		s.metricInc(MetricRefreshFailure)
		s.metricInc(MetricReplayDetected)
		s.logger.Warn("refresh token replay detected",
			zap.String("token_hash", res.Hash),
			zap.String("token_id", subject.tokenID),
			zap.String("client", res.ClientKey),
		)
		s.emitAudit(ctx, auditEventRefreshReplay, false, subject, res.Err, nil)
		return nil, res.Err

	case flows.RefreshFailureStorage:
		s.storageFailed(ctx, subject, res.Err, "used_token_store")
		return nil, res.Err

	default:
		s.metricInc(MetricRefreshFailure)
		s.logger.Error("refresh reissue failed",
			zap.String("step", res.Failure.String()),
			zap.String("token_hash", res.Hash),
			zap.Error(res.Err),
		)
		s.emitAudit(ctx, auditEventRefreshReissueFailed, false, subject, res.Err, func() map[string]string {
			return map[string]string{
				"step": res.Failure.String(),
			}
		})
		return nil, res.Err
	}
}

func (s *Service) storageFailed(ctx context.Context, subject auditSubject, err error, backend string) {
	s.metricInc(MetricRefreshFailure)
	s.metricInc(MetricStorageUnavailable)
	s.logger.Error("refresh storage unavailable", zap.String("backend", backend), zap.Error(err))
	s.emitAudit(ctx, auditEventStorageUnavailable, false, subject, err, func() map[string]string {
		return map[string]string{
			"backend": backend,
		}
	})
}
