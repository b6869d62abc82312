// Package common defines shared constants and sentinel errors used across
// client and server layers of Invisible Wallet. Callers should use errors.Is
// to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Auth errors. Wrong password and invalid/expired bearer tokens are
	// deliberately indistinguishable to callers.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidToken         = errors.New("invalid token")

	// Wallet errors.
	ErrCredentialNotFound = errors.New("wallet credential not found")
	ErrSessionInvalid     = errors.New("session invalid")
	ErrEncryptionInput    = errors.New("private key and password are required")

	// Validation errors.
	ErrInvalidEmail = errors.New("invalid email")
	ErrWeakPassword = errors.New("password is not strong enough")

	ErrInternal = errors.New("internal error")
)

// ProtocolError is a failed exchange with the paymaster service or the
// credential store: a non-2xx status with the upstream response body kept
// for diagnostics. It is never retried automatically.
type ProtocolError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsProtocolError reports whether err wraps a *ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
