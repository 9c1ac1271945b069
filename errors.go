package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes let callers branch on failure kind without string matching.
const (
	TextCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	TextCodeTokenExpired          = "TOKEN_EXPIRED"
	TextCodeTokenMalformed        = "TOKEN_MALFORMED"
	TextCodeTokenSignatureInvalid = "TOKEN_SIGNATURE_INVALID"
	TextCodeDuplicateRegistration = "DUPLICATE_REGISTRATION"
	TextCodeForbidden             = "FORBIDDEN"
)

// ErrInvalidCredentials is returned for every login failure: unknown
// identifier, inactive principal, or wrong password. The shape is
// deliberately identical so callers cannot tell which field was wrong.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials)

// ErrTokenExpired means the signature checked out but the clock is past exp.
var ErrTokenExpired = goerrors.New("token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed means the token was structurally unparseable.
var ErrTokenMalformed = goerrors.New("token malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed)

// ErrTokenSignatureInvalid means the token parsed but was signed with a
// different key or tampered with.
var ErrTokenSignatureInvalid = goerrors.New("token signature invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenSignatureInvalid)

// ErrDuplicateRegistration is returned when the login or email is taken.
// Which field collided is logged server-side only.
var ErrDuplicateRegistration = goerrors.New("login or email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateRegistration)

// ErrForbidden is returned when the access control gate rejects a role.
var ErrForbidden = goerrors.New("insufficient role", goerrors.CategoryAuth).
	WithTextCode(TextCodeForbidden)

// ErrPrincipalNotFound is the store-level miss; the Authenticator folds
// it into ErrInvalidCredentials before it reaches a client.
var ErrPrincipalNotFound = goerrors.New("principal not found", goerrors.CategoryNotFound)

// ErrNoEmptyString rejects empty plaintext passwords at the hasher.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryBadInput)

// ErrMismatchedHashAndPassword is the hasher-level mismatch.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials)

// ErrTooManyLoginAttempts is returned while the cooldown window is active.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials)

// HasTextCode reports whether err carries the given text code.
func HasTextCode(err error, code string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if HasTextCode(err, TextCodeTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if HasTextCode(err, TextCodeTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
