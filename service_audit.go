package jwtauth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const (
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshInvalid       = "refresh_invalid"
	auditEventRefreshWrongType     = "refresh_wrong_token_type"
	auditEventRefreshReplay        = "refresh_replay_detected"
	auditEventRefreshRateLimited   = "refresh_rate_limited"
	auditEventStorageUnavailable   = "storage_unavailable"
	auditEventKeysLoaded           = "keys_loaded"
	auditEventKeyLoadFailure       = "key_load_failure"
	auditEventTokenIssueFailure    = "token_issue_failure"
	auditEventRefreshReissueFailed = "refresh_reissue_failure"
)

// AuditErrorCode is the stable error label written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrNotConfigured    AuditErrorCode = "not_configured"
	auditErrKeyRead          AuditErrorCode = "key_read"
	auditErrSigning          AuditErrorCode = "signing_failed"
	auditErrExpired          AuditErrorCode = "expired"
	auditErrSignatureInvalid AuditErrorCode = "signature_invalid"
	auditErrMalformed        AuditErrorCode = "malformed"
	auditErrWrongTokenType   AuditErrorCode = "wrong_token_type"
	auditErrTokenReuse       AuditErrorCode = "token_reuse"
	auditErrRateLimited      AuditErrorCode = "rate_limited"
	auditErrUnavailable      AuditErrorCode = "backend_unavailable"
	auditErrInternal         AuditErrorCode = "internal_error"
)

// auditSubject carries the token fields an event may reference.
type auditSubject struct {
	tokenType string
	tokenID   string
	tokenHash string
}

func (s *Service) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject auditSubject,
	err error,
	metadataBuilder func() map[string]string,
) {
	if s == nil || s.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: s.now().UTC(),
		EventType: eventType,
		TokenType: subject.tokenType,
		TokenID:   subject.tokenID,
		TokenHash: subject.tokenHash,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	s.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	if reason, ok := ReasonOf(err); ok {
		switch reason {
		case ReasonExpired:
			return auditErrExpired
		case ReasonSignatureInvalid:
			return auditErrSignatureInvalid
		default:
			return auditErrMalformed
		}
	}

	switch {
	case errors.Is(err, ErrNotConfigured):
		return auditErrNotConfigured
	case errors.Is(err, ErrKeyRead):
		return auditErrKeyRead
	case errors.Is(err, ErrSigning),
		errors.Is(err, ErrInvalidTokenType):
		return auditErrSigning
	case errors.Is(err, ErrWrongTokenType):
		return auditErrWrongTokenType
	case errors.Is(err, ErrTokenAlreadyUsed):
		return auditErrTokenReuse
	case errors.Is(err, ErrRefreshRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrStorageUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
