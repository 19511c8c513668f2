package social

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	taskverse "github.com/taskverse/client-go"
)

const defaultFlowTimeout = 2 * time.Minute

// errSuperseded is the cancellation cause set when a newer sign-in
// attempt replaces an in-flight one.
var errSuperseded = errors.New("superseded by a newer sign-in attempt")

// Opener launches the user's browser at the authorization URL.
type Opener func(url string) error

// Flow runs the interactive sign-in: it binds a loopback redirect
// endpoint, sends the browser to the provider's consent screen, and
// exchanges the returned code. It implements
// taskverse.InteractiveSignIn.
//
// Only one attempt can be active at a time. Starting a new Run cancels
// the previous one, which then fails with the cancelled-by-newer-attempt
// error rather than hanging forever on a consent screen nobody is
// looking at.
type Flow struct {
	provider Provider
	opener   Opener
	logger   taskverse.Logger
	addr     string
	timeout  time.Duration

	mu      sync.Mutex
	cancel  context.CancelCauseFunc
	attempt uint64
}

// FlowOption customizes flow construction.
type FlowOption func(*Flow)

// WithOpener overrides how the authorization URL reaches the browser.
func WithOpener(opener Opener) FlowOption {
	return func(f *Flow) {
		if opener != nil {
			f.opener = opener
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger taskverse.Logger) FlowOption {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithListenAddr overrides the loopback listen address. The default
// binds an ephemeral port on 127.0.0.1.
func WithListenAddr(addr string) FlowOption {
	return func(f *Flow) {
		if addr != "" {
			f.addr = addr
		}
	}
}

// WithTimeout bounds how long a single attempt waits for the user.
func WithTimeout(d time.Duration) FlowOption {
	return func(f *Flow) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// NewFlow creates an interactive flow for the given provider.
func NewFlow(provider Provider, opts ...FlowOption) *Flow {
	f := &Flow{
		provider: provider,
		opener:   func(string) error { return nil },
		logger:   taskverse.DefaultLogger(),
		addr:     "127.0.0.1:0",
		timeout:  defaultFlowTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	return f
}

type callbackResult struct {
	code string
	err  error
}

// Run executes one interactive sign-in attempt and returns the
// provider credential for the identity exchange.
func (f *Flow) Run(ctx context.Context) (taskverse.IDPCredential, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	f.mu.Lock()
	if f.cancel != nil {
		f.cancel(errSuperseded)
	}
	f.cancel = cancel
	f.attempt++
	attempt := f.attempt
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		if f.attempt == attempt {
			f.cancel = nil
		}
		f.mu.Unlock()
	}()

	listener, err := net.Listen("tcp", f.addr)
	if err != nil {
		return taskverse.IDPCredential{}, authFailure("failed to bind loopback listener", err)
	}
	defer listener.Close()

	state := uuid.NewString()
	verifier, challenge, err := pkcePair()
	if err != nil {
		return taskverse.IDPCredential{}, authFailure("failed to generate code verifier", err)
	}

	redirectURI := "http://" + listener.Addr().String() + "/callback"

	results := make(chan callbackResult, 1)
	server := &http.Server{Handler: callbackHandler(state, results)}
	go server.Serve(listener)
	defer server.Close()

	authURL := f.provider.AuthCodeURL(state, redirectURI,
		WithPKCE(challenge, "S256"),
		WithPrompt("select_account"),
	)
	if err := f.opener(authURL); err != nil {
		return taskverse.IDPCredential{}, authFailure("failed to open sign-in window", err)
	}

	f.logger.Debug("waiting for %s authorization on %s", f.provider.Name(), redirectURI)

	var code string
	select {
	case res := <-results:
		if res.err != nil {
			return taskverse.IDPCredential{}, res.err
		}
		code = res.code
	case <-time.After(f.timeout):
		return taskverse.IDPCredential{}, taskverse.ErrPopupClosed
	case <-ctx.Done():
		if errors.Is(context.Cause(ctx), errSuperseded) {
			return taskverse.IDPCredential{}, taskverse.ErrPopupCancelled
		}
		return taskverse.IDPCredential{}, taskverse.ErrPopupClosed
	}

	token, err := f.provider.Exchange(ctx, code, redirectURI, WithCodeVerifier(verifier))
	if err != nil {
		return taskverse.IDPCredential{}, mapExchangeError(f.provider.Name(), err)
	}
	if token.IDToken == "" && token.AccessToken == "" {
		return taskverse.IDPCredential{}, authFailure("provider returned no usable credential", nil)
	}

	return taskverse.IDPCredential{
		Provider:    f.provider.Name(),
		IDToken:     token.IDToken,
		AccessToken: token.AccessToken,
	}, nil
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if query.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			deliver(results, callbackResult{err: authFailure("authorization state mismatch", nil)})
			return
		}

		if errCode := query.Get("error"); errCode != "" {
			w.Write([]byte("Sign-in was not completed. You can close this window."))
			switch errCode {
			case "access_denied":
				deliver(results, callbackResult{err: taskverse.ErrPopupClosed})
			default:
				deliver(results, callbackResult{err: authFailure("authorization failed: "+errCode, nil)})
			}
			return
		}

		code := query.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			deliver(results, callbackResult{err: authFailure("authorization response missing code", nil)})
			return
		}

		w.Write([]byte("Signed in. You can close this window."))
		deliver(results, callbackResult{code: code})
	})
}

// deliver keeps only the first callback; retries of the redirect page
// must not block the handler.
func deliver(results chan<- callbackResult, res callbackResult) {
	select {
	case results <- res:
	default:
	}
}

func pkcePair() (verifier, challenge string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	verifier = base64.RawURLEncoding.EncodeToString(raw)
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}

// mapExchangeError folds provider failures into the session error
// taxonomy: a normalized provider rejection stays an auth failure,
// anything else was transport.
func mapExchangeError(provider string, err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) {
		rich := taskverse.ErrUnknownAuth.Clone()
		rich.Source = err
		rich.WithMetadata(perr.Metadata())
		return rich
	}

	rich := taskverse.ErrNetwork.Clone()
	rich.Source = err
	rich.WithMetadata(map[string]any{"provider": provider})
	return rich
}

func authFailure(description string, err error) error {
	rich := taskverse.ErrUnknownAuth.Clone()
	rich.Source = err
	rich.WithMetadata(map[string]any{"description": description})
	return rich
}
