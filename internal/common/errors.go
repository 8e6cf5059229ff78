// Package common defines shared constants, random helpers and the error
// taxonomy used across GophAuth layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

// Error kinds. Every business error below unwraps to exactly one of them, so
// transport layers can map a failure to a response code with errors.Is.
var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorBadRequest   = errors.New("bad request")
)

// Business errors.
var (
	ErrEmailAlreadyExists = NewKindError(ErrorConflict, "email already exists")
	ErrInvalidCredentials = NewKindError(ErrorUnauthorized, "invalid credentials")
	ErrEmailNotVerified   = NewKindError(ErrorBadRequest, "please verify your email before logging in")

	ErrEmailRequired    = NewKindError(ErrorBadRequest, "email is required")
	ErrPasswordRequired = NewKindError(ErrorBadRequest, "password is required")
	ErrPasswordTooLong  = NewKindError(ErrorBadRequest, "password is too long")

	ErrVerificationTokenInvalid = NewKindError(ErrorBadRequest, "invalid verification token")
	ErrVerificationTokenUsed    = NewKindError(ErrorBadRequest, "token already used")
	ErrVerificationTokenExpired = NewKindError(ErrorBadRequest, "token expired")

	ErrMissingBearerToken = NewKindError(ErrorBadRequest, "no token provided")
	ErrInvalidToken       = NewKindError(ErrorUnauthorized, "invalid token")

	ErrOAuthStateInvalid      = NewKindError(ErrorBadRequest, "invalid oauth state")
	ErrOAuthEmailNotVerified  = NewKindError(ErrorBadRequest, "oauth provider did not verify the email")
	ErrOAuthProfileIncomplete = NewKindError(ErrorBadRequest, "oauth profile has no email")
	ErrOAuthExchangeFailed    = NewKindError(ErrorBadRequest, "oauth code exchange failed")
)

// KindError is a business error carrying a user-facing message and the kind
// it belongs to.
type KindError struct {
	kind error
	msg  string
}

// NewKindError returns an error with message msg that matches kind under errors.Is.
func NewKindError(kind error, msg string) *KindError {
	return &KindError{kind: kind, msg: msg}
}

func (e *KindError) Error() string { return e.msg }

func (e *KindError) Unwrap() error { return e.kind }

// Kind returns the taxonomy kind of err, or ErrorInternal when err does not
// belong to any known kind.
func Kind(err error) error {
	for _, k := range []error{ErrorConflict, ErrorUnauthorized, ErrorBadRequest, ErrorNotFound} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrorInternal
}
