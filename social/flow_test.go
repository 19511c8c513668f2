package social_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	taskverse "github.com/taskverse/client-go"
	"github.com/taskverse/client-go/social"
)

// stubProvider implements social.Provider with canned responses.
type stubProvider struct {
	mu          sync.Mutex
	token       *social.Token
	exchangeErr error

	exchangedCode     string
	exchangedVerifier string
	exchangedRedirect string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) AuthCodeURL(state, redirectURI string, opts ...social.AuthCodeOption) string {
	params := url.Values{}
	params.Set("state", state)
	params.Set("redirect_uri", redirectURI)
	return "stub://authorize?" + params.Encode()
}

func (p *stubProvider) Exchange(ctx context.Context, code, redirectURI string, opts ...social.ExchangeOption) (*social.Token, error) {
	cfg := social.ApplyExchangeOptions(opts...)
	p.mu.Lock()
	p.exchangedCode = code
	p.exchangedVerifier = cfg.CodeVerifier
	p.exchangedRedirect = redirectURI
	p.mu.Unlock()

	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return p.token, nil
}

func (p *stubProvider) UserInfo(ctx context.Context, token *social.Token) (*social.Profile, error) {
	return &social.Profile{Provider: "stub"}, nil
}

// consentOpener simulates the user approving the consent screen: it
// parses the authorization URL and hits the loopback callback the way
// the provider's redirect would.
func consentOpener(t *testing.T, query url.Values) social.Opener {
	t.Helper()
	return func(authURL string) error {
		parsed, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		params := parsed.Query()
		redirect := params.Get("redirect_uri")

		callback := url.Values{}
		if query.Get("state") == "" {
			callback.Set("state", params.Get("state"))
		}
		for key, vals := range query {
			for _, v := range vals {
				callback.Add(key, v)
			}
		}

		resp, err := http.Get(redirect + "?" + callback.Encode())
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	}
}

func TestFlowCompletesRoundTrip(t *testing.T) {
	provider := &stubProvider{
		token: &social.Token{
			AccessToken: "access-1",
			IDToken:     "idtok-1",
		},
	}

	flow := social.NewFlow(provider,
		social.WithOpener(consentOpener(t, url.Values{"code": {"code-1"}})),
	)

	cred, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "stub", cred.Provider)
	assert.Equal(t, "idtok-1", cred.IDToken)
	assert.Equal(t, "access-1", cred.AccessToken)

	assert.Equal(t, "code-1", provider.exchangedCode)
	assert.NotEmpty(t, provider.exchangedVerifier, "exchange must carry the PKCE verifier")
	assert.Contains(t, provider.exchangedRedirect, "http://127.0.0.1:")
}

func TestFlowUserDeniedConsent(t *testing.T) {
	provider := &stubProvider{}
	flow := social.NewFlow(provider,
		social.WithOpener(consentOpener(t, url.Values{"error": {"access_denied"}})),
	)

	_, err := flow.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, taskverse.TextCodePopupClosed, taskverse.TextCode(err))
}

func TestFlowCancelledContextReadsAsClosedWindow(t *testing.T) {
	provider := &stubProvider{}

	ctx, cancel := context.WithCancel(context.Background())
	flow := social.NewFlow(provider, social.WithOpener(func(string) error {
		cancel()
		return nil
	}))

	_, err := flow.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, taskverse.TextCodePopupClosed, taskverse.TextCode(err))
}

func TestFlowTimesOutAsClosedWindow(t *testing.T) {
	provider := &stubProvider{}
	flow := social.NewFlow(provider,
		social.WithOpener(func(string) error { return nil }),
		social.WithTimeout(50*time.Millisecond),
	)

	_, err := flow.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, taskverse.TextCodePopupClosed, taskverse.TextCode(err))
}

func TestFlowNewerAttemptCancelsOlder(t *testing.T) {
	provider := &stubProvider{
		token: &social.Token{AccessToken: "access-2", IDToken: "idtok-2"},
	}

	// The first Run's opener stalls; the second completes consent.
	firstOpened := make(chan struct{})
	consent := consentOpener(t, url.Values{"code": {"code-2"}})
	var calls int
	var mu sync.Mutex
	flow := social.NewFlow(provider, social.WithOpener(func(authURL string) error {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(firstOpened)
			return nil
		}
		return consent(authURL)
	}))

	firstErr := make(chan error, 1)
	go func() {
		_, err := flow.Run(context.Background())
		firstErr <- err
	}()

	<-firstOpened

	cred, err := flow.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "idtok-2", cred.IDToken)

	err = <-firstErr
	require.Error(t, err)
	assert.Equal(t, taskverse.TextCodePopupCancelled, taskverse.TextCode(err))
}

func TestFlowStateMismatchRejected(t *testing.T) {
	provider := &stubProvider{}
	flow := social.NewFlow(provider,
		social.WithOpener(consentOpener(t, url.Values{"state": {"forged"}, "code": {"code-x"}})),
	)

	_, err := flow.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, taskverse.TextCodeUnknownAuth, taskverse.TextCode(err))
}

func TestFlowExchangeProviderErrorMapsToAuthFailure(t *testing.T) {
	provider := &stubProvider{
		exchangeErr: &social.ProviderError{
			Provider:  "stub",
			Operation: "exchange",
			Status:    http.StatusBadRequest,
			Code:      "invalid_grant",
		},
	}
	flow := social.NewFlow(provider,
		social.WithOpener(consentOpener(t, url.Values{"code": {"code-1"}})),
	)

	_, err := flow.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, taskverse.TextCodeUnknownAuth, taskverse.TextCode(err))
}

func TestFlowExchangeTransportErrorMapsToNetwork(t *testing.T) {
	provider := &stubProvider{
		exchangeErr: errors.New("dial tcp: connection refused"),
	}
	flow := social.NewFlow(provider,
		social.WithOpener(consentOpener(t, url.Values{"code": {"code-1"}})),
	)

	_, err := flow.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, taskverse.TextCodeNetwork, taskverse.TextCode(err))

	// The raw transport detail stays out of the user-facing message.
	assert.NotContains(t, taskverse.UserMessage(err), "dial tcp")
}
