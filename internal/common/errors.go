// Package common defines shared constants, sentinel errors and the error
// taxonomy used across the credkeeper server. Callers should use errors.Is to
// match sentinel values and KindOf to classify an arbitrary error.
package common

import "errors"

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a user-safe error. Code is a stable machine-readable identifier,
// Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// KindOf reports the taxonomy kind of err. Errors that are not *Error are
// internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Public returns the user-safe *Error for err. Non-taxonomy errors collapse to
// ErrInternal so store or driver details never leak.
func Public(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal
}

var (
	// Repository-level errors.
	ErrorNotFound        = errors.New("not found")
	ErrVersionConflict   = errors.New("version conflict")
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")

	// Token decoding errors.
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformedToken   = errors.New("malformed token")
)

var ErrInternal = newError(KindInternal, "internal_error", "Internal server error")

// Validation.
var (
	ErrMissingField      = newError(KindValidation, "missing_field", "Username and password required")
	ErrValidation        = newError(KindValidation, "validation_failed", "Invalid request")
	ErrPasswordTooShort  = newError(KindValidation, "password_too_short", "Password must be at least 8 characters")
	ErrPasswordTooLong   = newError(KindValidation, "password_too_long", "Password must be at most 72 bytes")
	ErrUsernameTooShort  = newError(KindValidation, "username_too_short", "Username must be at least 3 characters")
	ErrPinTooShort       = newError(KindValidation, "pin_too_short", "PIN must be at least 4 digits")
	ErrPinUnchanged      = newError(KindValidation, "pin_unchanged", "New PIN cannot be the same as your current PIN")
	ErrNoOpChange        = newError(KindValidation, "no_op_change", "That is already your current email")
	ErrNoPendingChange   = newError(KindValidation, "no_pending_change", "No pending email to cancel")
	ErrAlreadyVerified   = newError(KindValidation, "already_verified", "Email already verified")
	ErrNoEmail           = newError(KindValidation, "no_email", "No email associated with account")
	ErrPasswordUnchanged = newError(KindValidation, "password_unchanged", "New password cannot be the same as your current password")
)

// Authentication.
var (
	ErrNotAuthenticated             = newError(KindAuthentication, "not_authenticated", "Not authenticated")
	ErrInvalidToken                 = newError(KindAuthentication, "invalid_token", "Invalid token")
	ErrAccessTokenExpired           = newError(KindAuthentication, "token_expired", "Token expired")
	ErrInvalidCredentials           = newError(KindAuthentication, "invalid_credentials", "Invalid username or password")
	ErrNoRefreshToken               = newError(KindAuthentication, "no_refresh_token", "No refresh token")
	ErrInvalidOrRevokedRefreshToken = newError(KindAuthentication, "invalid_refresh_token", "Invalid or revoked refresh token")
	ErrRefreshTokenExpired          = newError(KindAuthentication, "refresh_token_expired", "Refresh token expired")
	ErrInvalidCurrentPassword       = newError(KindAuthentication, "invalid_current_password", "Invalid current password")
	ErrInvalidCurrentPin            = newError(KindAuthentication, "invalid_current_pin", "Invalid current PIN")
	ErrInvalidPin                   = newError(KindAuthentication, "invalid_pin", "Invalid PIN")
)

// Authorization.
var (
	ErrEmailNotVerified = newError(KindAuthorization, "email_not_verified", "Email not verified")
	ErrAccountDisabled  = newError(KindAuthorization, "account_disabled", "Account is disabled")
)

// Conflict.
var (
	ErrUsernameTaken = newError(KindConflict, "username_taken", "Username already exists")
	ErrEmailTaken    = newError(KindConflict, "email_taken", "Email already exists")
	ErrEmailInUse    = newError(KindConflict, "email_in_use", "That email is already in use")
)

// Not found.
var (
	ErrInvalidOrExpiredToken = newError(KindNotFound, "invalid_or_expired_token", "Invalid or expired token")
	ErrInvalidEmailToken     = newError(KindNotFound, "invalid_email_change_token", "Invalid or expired token, or no pending email change")
	ErrAccountNotFound       = newError(KindNotFound, "account_not_found", "User not found")
)
