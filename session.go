package taskverse

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// SessionState describes the store's knowledge of "who is logged in".
type SessionState int

const (
	// StateUnknown is the only valid state before the provider's
	// initial restore check resolves. Dependents must not redirect or
	// otherwise decide while in it.
	StateUnknown SessionState = iota
	StateAnonymous
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}

// Subscriber observes session changes. The identity is a copy; nil
// when the state is not StateAuthenticated.
type Subscriber func(state SessionState, identity *Identity)

// Store is the single source of truth for the current authenticated
// identity. All mutation flows through its operations; no other
// component writes session state.
type Store struct {
	mu          sync.Mutex
	state       SessionState
	identity    *Identity
	provider    AuthProvider
	interactive InteractiveSignIn
	credentials CredentialStore
	logger      Logger

	nextSub     int
	subscribers map[int]Subscriber
}

// InteractiveSignIn runs a federated provider's interactive flow
// (the popup analog) and yields the credential to exchange with the
// auth provider.
type InteractiveSignIn interface {
	Run(ctx context.Context) (IDPCredential, error)
}

// NewStore returns a session store in StateUnknown. Call Restore at
// client startup to resolve the initial state.
func NewStore(provider AuthProvider, credentials CredentialStore) *Store {
	return &Store{
		state:       StateUnknown,
		provider:    provider,
		credentials: credentials,
		logger:      defLogger{},
		subscribers: map[int]Subscriber{},
	}
}

// WithLogger overrides the default logger.
func (s *Store) WithLogger(logger Logger) *Store {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithInteractiveSignIn configures the federated interactive flow used
// by SignInWithProvider.
func (s *Store) WithInteractiveSignIn(flow InteractiveSignIn) *Store {
	s.interactive = flow
	return s
}

// Current returns the state and a copy of the identity (nil unless
// authenticated).
func (s *Store) Current() (SessionState, *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.identity.clone()
}

// Subscribe registers a change observer and returns its cancel
// function. The observer is invoked after every state change,
// including forced termination.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Restore performs the provider's restore-session-on-load check,
// resolving StateUnknown. A persisted refresh credential is replayed
// through the provider; any failure resolves to StateAnonymous rather
// than surfacing an error, matching "no session" semantics on load.
func (s *Store) Restore(ctx context.Context) SessionState {
	refreshToken := ""
	if s.credentials != nil {
		token, err := s.credentials.SavedCredential()
		if err != nil {
			s.logger.Warn("restore: reading saved credential: %v", err)
		}
		refreshToken = token
	}

	if refreshToken == "" {
		s.setAnonymous()
		return StateAnonymous
	}

	acct, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		s.logger.Info("restore: saved credential rejected, starting anonymous", "error", err)
		s.clearSavedCredential()
		s.setAnonymous()
		return StateAnonymous
	}

	s.setAuthenticated(identityFromAccount(acct))
	return StateAuthenticated
}

// SignIn authenticates with email/password. On success the identity is
// stored and subscribers are notified.
func (s *Store) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	acct, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Error("sign-in failed", "email", email, "error", err)
		return nil, normalizeAuthError(err)
	}

	identity := identityFromAccount(acct)
	s.setAuthenticated(identity)
	return identity.clone(), nil
}

// SignInWithProvider runs the configured interactive federated flow
// and exchanges its credential with the auth provider.
func (s *Store) SignInWithProvider(ctx context.Context) (*Identity, error) {
	if s.interactive == nil {
		return nil, ErrOperationNotAllowed.Clone().WithMetadata(map[string]any{
			"reason": "no interactive provider configured",
		})
	}

	idpCred, err := s.interactive.Run(ctx)
	if err != nil {
		s.logger.Error("interactive sign-in failed", "error", err)
		return nil, normalizeAuthError(err)
	}

	acct, err := s.provider.SignInWithIDP(ctx, idpCred)
	if err != nil {
		s.logger.Error("idp credential exchange failed", "provider", idpCred.Provider, "error", err)
		return nil, normalizeAuthError(err)
	}

	identity := identityFromAccount(acct)
	s.setAuthenticated(identity)
	return identity.clone(), nil
}

// Register validates the password policy locally, creates the account,
// then applies the display name and photo via a profile update before
// resolving. A weak password fails fast with zero network calls.
func (s *Store) Register(ctx context.Context, email, password, displayName, photoURL string) (*Identity, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	acct, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		s.logger.Error("registration failed", "email", email, "error", err)
		return nil, normalizeAuthError(err)
	}

	if displayName != "" || photoURL != "" {
		updated, err := s.provider.UpdateProfile(ctx, acct.Credential, displayName, photoURL)
		if err != nil {
			s.logger.Error("registration profile update failed", "email", email, "error", err)
			return nil, normalizeAuthError(err)
		}
		acct = updated
	}

	identity := identityFromAccount(acct)
	s.setAuthenticated(identity)
	return identity.clone(), nil
}

// UpdateProfile mutates the current identity's display attributes.
func (s *Store) UpdateProfile(ctx context.Context, displayName, photoURL string) (*Identity, error) {
	s.mu.Lock()
	if s.state != StateAuthenticated || s.identity == nil {
		s.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	cred := s.identity.Credential
	s.mu.Unlock()

	acct, err := s.provider.UpdateProfile(ctx, cred, displayName, photoURL)
	if err != nil {
		s.logger.Error("profile update failed", "error", err)
		return nil, normalizeAuthError(err)
	}

	identity := identityFromAccount(acct)
	s.setAuthenticated(identity)
	return identity.clone(), nil
}

// SignOut clears the identity and transitions to StateAnonymous.
// Idempotent: signing out while anonymous is a no-op and does not
// notify subscribers again.
func (s *Store) SignOut(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateAnonymous {
		s.mu.Unlock()
		return
	}
	s.state = StateAnonymous
	s.identity = nil
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	s.clearSavedCredential()
	s.notify(subs, StateAnonymous, nil)
}

// Terminate is the forced-termination path invoked by the HTTP layer
// when the backend rejects the credential. It behaves like SignOut but
// logs the reason; concurrent invocations collapse to a single
// transition so dependents see exactly one notification.
func (s *Store) Terminate(ctx context.Context, reason string) bool {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return false
	}
	s.state = StateAnonymous
	s.identity = nil
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	s.logger.Warn("session terminated", "reason", reason)
	s.clearSavedCredential()
	s.notify(subs, StateAnonymous, nil)
	return true
}

func (s *Store) setAuthenticated(identity *Identity) {
	if identity == nil {
		// Guard the invariant: Authenticated never holds a nil identity.
		s.logger.Error("refusing authenticated transition with nil identity")
		return
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.identity = identity
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	if s.credentials != nil && identity.Credential.RefreshToken != "" {
		if err := s.credentials.SaveCredential(identity.Credential.RefreshToken); err != nil {
			s.logger.Warn("persisting refresh credential: %v", err)
		}
	}

	s.notify(subs, StateAuthenticated, identity.clone())
}

func (s *Store) setAnonymous() {
	s.mu.Lock()
	changed := s.state != StateAnonymous
	s.state = StateAnonymous
	s.identity = nil
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	if changed {
		s.notify(subs, StateAnonymous, nil)
	}
}

func (s *Store) clearSavedCredential() {
	if s.credentials == nil {
		return
	}
	if err := s.credentials.ClearCredential(); err != nil {
		s.logger.Warn("clearing saved credential: %v", err)
	}
}

func (s *Store) snapshotSubscribers() []Subscriber {
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func (s *Store) notify(subs []Subscriber, state SessionState, identity *Identity) {
	for _, fn := range subs {
		fn(state, identity)
	}
}

// normalizeAuthError guarantees every provider failure leaves the
// store boundary as a taxonomy error, never a raw provider code.
func normalizeAuthError(err error) error {
	if err == nil {
		return nil
	}
	if IsAuthError(err) {
		return err
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryAuth, ErrUnknownAuth.Message).
		WithTextCode(TextCodeUnknownAuth)
}
