package jwtauth

import (
	"errors"

	"github.com/MrEthical07/jwtauth/jwt"
	"github.com/MrEthical07/jwtauth/storage"
)

var (
	// ErrNotConfigured is returned when the key an operation needs has not been loaded.
	ErrNotConfigured = jwt.ErrNotConfigured
	// ErrKeyRead wraps filesystem errors from LoadKeys. The *fs.PathError stays reachable
	// through errors.Is / errors.As.
	ErrKeyRead = errors.New("key read failed")
	// ErrSigning is returned when a token cannot be signed.
	ErrSigning = jwt.ErrSigning
	// ErrVerification is the umbrella for every verification failure; use [ReasonOf] for
	// the specific reason.
	ErrVerification = jwt.ErrVerification
	// ErrWrongTokenType is returned when a non-refresh token is presented for refresh.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrTokenAlreadyUsed is returned when a refresh token is replayed.
	ErrTokenAlreadyUsed = storage.ErrTokenAlreadyUsed
	// ErrStorageUnavailable is returned when the used-token store cannot be reached.
	ErrStorageUnavailable = storage.ErrStorageUnavailable
	// ErrRefreshRateLimited is returned when a client exceeds its refresh budget.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrInvalidTokenHash is returned when a value that is not a token hash is marked used.
	ErrInvalidTokenHash = errors.New("invalid token hash")
	// ErrInvalidTokenType is returned when a token is requested with an unknown type.
	ErrInvalidTokenType = errors.New("invalid token type")
	// ErrServiceNotReady is returned by methods called on a nil *Service.
	ErrServiceNotReady = errors.New("service not initialized")
)

// VerificationError reports why a token was rejected.
type VerificationError = jwt.VerificationError

// Reason classifies a verification failure.
type Reason = jwt.Reason

const (
	ReasonSignatureInvalid = jwt.ReasonSignatureInvalid
	ReasonExpired          = jwt.ReasonExpired
	ReasonMalformed        = jwt.ReasonMalformed
)

// ReasonOf extracts the verification reason from err.
func ReasonOf(err error) (Reason, bool) {
	return jwt.ReasonOf(err)
}
