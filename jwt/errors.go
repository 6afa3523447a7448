package jwt

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when the key needed for an operation is missing.
	ErrNotConfigured = errors.New("key not configured")
	// ErrSigning is returned when a token cannot be signed.
	ErrSigning = errors.New("token signing failed")
	// ErrVerification is the umbrella for every *VerificationError.
	ErrVerification = errors.New("token verification failed")
)

// Reason classifies a verification failure.
type Reason string

const (
	// ReasonSignatureInvalid covers altered tokens, wrong keys and disallowed algorithms.
	ReasonSignatureInvalid Reason = "signature-invalid"
	// ReasonExpired means the current time is at or past exp.
	ReasonExpired Reason = "expired"
	// ReasonMalformed means the input is not a parseable token.
	ReasonMalformed Reason = "malformed"
)

// VerificationError reports why a token was rejected.
type VerificationError struct {
	Reason Reason
	Err    error
}

func (e *VerificationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrVerification, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", ErrVerification, e.Reason, e.Err)
}

// Unwrap exposes both ErrVerification and the underlying golang-jwt error.
func (e *VerificationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrVerification}
	}
	return []error{ErrVerification, e.Err}
}

// ReasonOf extracts the Reason from err when it wraps a *VerificationError.
func ReasonOf(err error) (Reason, bool) {
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}
