package domain

import "errors"

// Authentication failures are error values so callers can match them and map
// each one to a stable API code. Credential and token failures share uniform
// messages; nothing here reveals whether an email exists.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrEmailUnverified    = errors.New("email not verified")
	ErrAccountLocked      = errors.New("account locked")
	ErrProviderLinked     = errors.New("provider already linked")
	ErrInvalidState       = errors.New("invalid oauth state")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenMalformed     = errors.New("token malformed")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrWrongTokenType     = errors.New("wrong token type")
	ErrNotFound           = errors.New("not found")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// ValidationError carries field-level failures for malformed input.
// Details maps a field name to its ordered validation messages.
type ValidationError struct {
	Details map[string][]string
}

func (e *ValidationError) Error() string { return "validation failed" }

// NewValidationError builds a single-field validation failure.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Details: map[string][]string{field: {message}}}
}
