package taskverse

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredential    = "auth_invalid_credential"
	TextCodeAccountDisabled      = "auth_account_disabled"
	TextCodeAccountNotFound      = "auth_account_not_found"
	TextCodeRateLimited          = "auth_rate_limited"
	TextCodeUnknownAuth          = "auth_unknown"
	TextCodePopupClosed          = "auth_popup_closed"
	TextCodePopupCancelled       = "auth_popup_cancelled"
	TextCodeAccountConflict      = "auth_account_conflict"
	TextCodeNetwork              = "auth_network_failure"
	TextCodeEmailInUse           = "auth_email_in_use"
	TextCodeInvalidEmail         = "auth_invalid_email"
	TextCodeOperationNotAllowed  = "auth_operation_not_allowed"
	TextCodeWeakPassword         = "auth_weak_password"
	TextCodeNotAuthenticated     = "auth_not_authenticated"
	TextCodeAuthorizationExpired = "auth_authorization_expired"
)

// ErrInvalidCredential is returned when the email/password pair is rejected.
var ErrInvalidCredential = goerrors.New("incorrect email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredential).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountDisabled is returned when the account has been disabled by an administrator.
var ErrAccountDisabled = goerrors.New("this account has been disabled", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(goerrors.CodeForbidden)

// ErrAccountNotFound is returned when no account exists for the email.
var ErrAccountNotFound = goerrors.New("no account found with this email", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrRateLimited is returned when the provider throttles repeated attempts.
var ErrRateLimited = goerrors.New("too many attempts, try again later", goerrors.CategoryOperation).
	WithTextCode(TextCodeRateLimited).
	WithCode(429)

// ErrUnknownAuth covers provider failures with no more specific mapping.
var ErrUnknownAuth = goerrors.New("authentication failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnknownAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrPopupClosed is returned when the interactive sign-in window was
// closed before the flow completed.
var ErrPopupClosed = goerrors.New("sign-in window was closed before completing", goerrors.CategoryAuth).
	WithTextCode(TextCodePopupClosed).
	WithCode(goerrors.CodeUnauthorized)

// ErrPopupCancelled is returned when a newer interactive sign-in
// superseded an in-flight one.
var ErrPopupCancelled = goerrors.New("sign-in was cancelled by another active attempt", goerrors.CategoryAuth).
	WithTextCode(TextCodePopupCancelled).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountConflict is returned when an account already exists with a
// different federated provider.
var ErrAccountConflict = goerrors.New("an account already exists with a different provider", goerrors.CategoryConflict).
	WithTextCode(TextCodeAccountConflict).
	WithCode(goerrors.CodeConflict)

// ErrNetwork is returned when the provider was unreachable.
var ErrNetwork = goerrors.New("network error, check your connection", goerrors.CategoryOperation).
	WithTextCode(TextCodeNetwork).
	WithCode(goerrors.CodeInternal)

// ErrEmailInUse is returned on registration with an already-registered email.
var ErrEmailInUse = goerrors.New("email is already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailInUse).
	WithCode(goerrors.CodeConflict)

// ErrInvalidEmail is returned when the email address is malformed.
var ErrInvalidEmail = goerrors.New("invalid email address", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail).
	WithCode(goerrors.CodeBadRequest)

// ErrOperationNotAllowed is returned when the sign-in method is
// disabled for the project.
var ErrOperationNotAllowed = goerrors.New("operation not allowed, contact support", goerrors.CategoryAuth).
	WithTextCode(TextCodeOperationNotAllowed).
	WithCode(goerrors.CodeForbidden)

// ErrWeakPassword is returned when the password fails the local policy
// (or the provider's, if it ever gets that far).
var ErrWeakPassword = goerrors.New("password does not meet the minimum requirements", goerrors.CategoryValidation).
	WithTextCode(TextCodeWeakPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrNotAuthenticated is returned by operations that require an active
// session when none exists.
var ErrNotAuthenticated = goerrors.New("no active session", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrAuthorizationExpired marks the forced-termination path: the
// backend rejected the credential mid-session.
var ErrAuthorizationExpired = goerrors.New("session expired, sign in again", goerrors.CategoryAuth).
	WithTextCode(TextCodeAuthorizationExpired).
	WithCode(goerrors.CodeUnauthorized)

// TextCode extracts the taxonomy text code from an error, or "".
func TextCode(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}

func hasTextCode(err error, code string) bool {
	return TextCode(err) == code
}

// IsWeakPassword reports whether err is the weak-password rejection.
func IsWeakPassword(err error) bool {
	return hasTextCode(err, TextCodeWeakPassword)
}

// IsNotAuthenticated reports whether err is the missing-session rejection.
func IsNotAuthenticated(err error) bool {
	return hasTextCode(err, TextCodeNotAuthenticated)
}

// IsAuthorizationExpired reports whether err is a forced termination.
func IsAuthorizationExpired(err error) bool {
	return hasTextCode(err, TextCodeAuthorizationExpired)
}

// IsAuthError reports whether err carries any code from the auth
// taxonomy, i.e. it was mapped at a provider boundary.
func IsAuthError(err error) bool {
	code := TextCode(err)
	return len(code) > len("auth_") && code[:len("auth_")] == "auth_"
}

// UserMessage renders an error as the human-readable message shown in
// a transient notification. Unmapped errors get a generic fallback so
// raw provider or transport detail never reaches the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}
	return "Something went wrong. Please try again."
}
