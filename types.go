package taskverse

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AuthProvider is the capability set the session store needs from the
// third-party authentication backend. A test double can implement it
// without a network dependency.
type AuthProvider interface {
	// SignIn performs interactive email/password authentication.
	SignIn(ctx context.Context, email, password string) (*Account, error)

	// SignInWithIDP exchanges a federated credential (e.g. a Google ID
	// token obtained from an interactive flow) for a provider session.
	SignInWithIDP(ctx context.Context, cred IDPCredential) (*Account, error)

	// SignUp creates a new account with email/password credentials.
	SignUp(ctx context.Context, email, password string) (*Account, error)

	// UpdateProfile mutates the display attributes of the account that
	// owns the given credential and returns the refreshed account.
	UpdateProfile(ctx context.Context, cred Credential, displayName, photoURL string) (*Account, error)

	// Refresh exchanges a refresh token for a fresh access credential.
	// Used by the restore-session-on-load check.
	Refresh(ctx context.Context, refreshToken string) (*Account, error)
}

// Account is the provider's view of an authenticated user: profile
// attributes plus the issued credential.
type Account struct {
	ID          string
	DisplayName string
	Email       string
	PhotoURL    string
	Credential  Credential
}

// IDPCredential carries the proof obtained from a federated identity
// provider's interactive flow.
type IDPCredential struct {
	Provider    string
	IDToken     string
	AccessToken string
}

// CredentialStore persists the refresh credential between runs so the
// session survives a client restart.
type CredentialStore interface {
	SavedCredential() (refreshToken string, err error)
	SaveCredential(refreshToken string) error
	ClearCredential() error
}

// Notifier is the transient user-notification surface (toast analog).
// Implementations must be non-blocking.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// NoopNotifier discards notifications. Useful in tests and headless
// tooling.
type NoopNotifier struct{}

func (NoopNotifier) Success(string) {}
func (NoopNotifier) Error(string)   {}

// DefaultLogger returns the stdout logger used when none is injected.
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] TASKVERSE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] TASKVERSE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] TASKVERSE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] TASKVERSE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
