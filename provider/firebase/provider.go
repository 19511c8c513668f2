package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	taskverse "github.com/taskverse/client-go"
)

// Provider implements taskverse.AuthProvider over the Firebase Auth
// REST API: identitytoolkit for account operations, securetoken for
// credential refresh.
type Provider struct {
	config     Config
	httpClient *http.Client
	logger     taskverse.Logger
}

// New creates a Firebase provider.
func New(cfg Config) *Provider {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = taskverse.DefaultLogger()
	}

	return &Provider{
		config:     cfg,
		httpClient: client,
		logger:     logger,
	}
}

type accountResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`

	// signInWithIdp sets this when the federated email already belongs
	// to an account with a different sign-in method.
	NeedConfirmation bool `json:"needConfirmation"`
}

// SignIn implements taskverse.AuthProvider.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*taskverse.Account, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp accountResponse
	if err := p.postIdentity(ctx, "accounts:signInWithPassword", payload, &resp); err != nil {
		return nil, err
	}

	return p.hydrate(ctx, &resp)
}

// SignUp implements taskverse.AuthProvider.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*taskverse.Account, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp accountResponse
	if err := p.postIdentity(ctx, "accounts:signUp", payload, &resp); err != nil {
		return nil, err
	}

	return p.account(&resp), nil
}

// SignInWithIDP implements taskverse.AuthProvider. The federated
// credential from the interactive flow is exchanged for a Firebase
// session.
func (p *Provider) SignInWithIDP(ctx context.Context, cred taskverse.IDPCredential) (*taskverse.Account, error) {
	postBody := url.Values{}
	postBody.Set("providerId", providerID(cred.Provider))
	if cred.IDToken != "" {
		postBody.Set("id_token", cred.IDToken)
	} else {
		postBody.Set("access_token", cred.AccessToken)
	}

	payload := map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}

	var resp accountResponse
	if err := p.postIdentity(ctx, "accounts:signInWithIdp", payload, &resp); err != nil {
		return nil, err
	}

	if resp.NeedConfirmation {
		return nil, mapAuthError("signInWithIdp", "FEDERATED_USER_ID_ALREADY_LINKED", http.StatusOK, nil)
	}

	return p.account(&resp), nil
}

// UpdateProfile implements taskverse.AuthProvider. The credential is
// untouched; only display attributes change.
func (p *Provider) UpdateProfile(ctx context.Context, cred taskverse.Credential, displayName, photoURL string) (*taskverse.Account, error) {
	payload := map[string]any{
		"idToken":           cred.AccessToken,
		"returnSecureToken": false,
	}
	if displayName != "" {
		payload["displayName"] = displayName
	}
	if photoURL != "" {
		payload["photoUrl"] = photoURL
	}

	var resp accountResponse
	if err := p.postIdentity(ctx, "accounts:update", payload, &resp); err != nil {
		return nil, err
	}

	return &taskverse.Account{
		ID:          resp.LocalID,
		DisplayName: resp.DisplayName,
		Email:       resp.Email,
		PhotoURL:    resp.PhotoURL,
		Credential:  cred,
	}, nil
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// Refresh implements taskverse.AuthProvider. A rejected refresh token
// means the saved session is gone for good.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*taskverse.Account, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := p.config.secureTokenURL() + "/token?key=" + url.QueryEscape(p.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, mapAuthError("refresh", "", 0, nil)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, status, err := p.send(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		code, _ := parseRESTError(body)
		return nil, mapAuthError("refresh", code, status, body)
	}

	var resp refreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, mapAuthError("refresh", "", status, body)
	}

	account := &taskverse.Account{
		ID: resp.UserID,
		Credential: taskverse.Credential{
			AccessToken:  resp.IDToken,
			RefreshToken: resp.RefreshToken,
			ExpiresAt:    expiry(resp.ExpiresIn),
		},
	}

	// The refresh endpoint returns no profile; fetch it so a restored
	// session looks the same as a fresh sign-in.
	if err := p.lookup(ctx, account); err != nil {
		p.logger.Warn("profile lookup after refresh failed: %v", err)
	}

	return account, nil
}

type lookupResponse struct {
	Users []struct {
		LocalID     string `json:"localId"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoUrl"`
	} `json:"users"`
}

func (p *Provider) lookup(ctx context.Context, account *taskverse.Account) error {
	payload := map[string]any{"idToken": account.Credential.AccessToken}

	var resp lookupResponse
	if err := p.postIdentity(ctx, "accounts:lookup", payload, &resp); err != nil {
		return err
	}
	if len(resp.Users) == 0 {
		return mapAuthError("lookup", "USER_NOT_FOUND", http.StatusOK, nil)
	}

	user := resp.Users[0]
	account.ID = user.LocalID
	account.Email = user.Email
	account.DisplayName = user.DisplayName
	account.PhotoURL = user.PhotoURL
	return nil
}

// hydrate completes a sign-in response with the profile attributes the
// endpoint omits.
func (p *Provider) hydrate(ctx context.Context, resp *accountResponse) (*taskverse.Account, error) {
	account := p.account(resp)
	if account.DisplayName == "" || account.PhotoURL == "" {
		if err := p.lookup(ctx, account); err != nil {
			p.logger.Debug("profile lookup skipped: %v", err)
		}
	}
	return account, nil
}

func (p *Provider) account(resp *accountResponse) *taskverse.Account {
	return &taskverse.Account{
		ID:          resp.LocalID,
		DisplayName: resp.DisplayName,
		Email:       resp.Email,
		PhotoURL:    resp.PhotoURL,
		Credential: taskverse.Credential{
			AccessToken:  resp.IDToken,
			RefreshToken: resp.RefreshToken,
			ExpiresAt:    expiry(resp.ExpiresIn),
		},
	}
}

func (p *Provider) postIdentity(ctx context.Context, endpoint string, payload, out any) error {
	operation := strings.TrimPrefix(endpoint, "accounts:")

	encoded, err := json.Marshal(payload)
	if err != nil {
		return mapAuthError(operation, "", 0, nil)
	}

	target := p.config.identityURL() + "/" + endpoint + "?key=" + url.QueryEscape(p.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(encoded))
	if err != nil {
		return mapAuthError(operation, "", 0, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := p.send(req)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		code, _ := parseRESTError(body)
		p.logger.Debug("firebase %s rejected: %s (%d)", operation, code, status)
		return mapAuthError(operation, code, status, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return mapAuthError(operation, "", status, body)
	}
	return nil
}

func (p *Provider) send(req *http.Request) ([]byte, int, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		rich := taskverse.ErrNetwork.Clone()
		rich.Source = err
		return nil, 0, rich.WithMetadata(map[string]any{"provider": "firebase"})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		rich := taskverse.ErrNetwork.Clone()
		rich.Source = err
		return nil, 0, rich.WithMetadata(map[string]any{"provider": "firebase"})
	}

	return body, resp.StatusCode, nil
}

func expiry(expiresIn string) time.Time {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(seconds) * time.Second)
}

// providerID normalizes flow provider names to identitytoolkit
// provider IDs ("google" becomes "google.com").
func providerID(name string) string {
	if name == "" {
		return "google.com"
	}
	if strings.Contains(name, ".") {
		return name
	}
	return name + ".com"
}
