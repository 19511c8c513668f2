package firebase

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	taskverse "github.com/taskverse/client-go"
)

// IDTokenClaims are the verified claims of a Firebase ID token.
type IDTokenClaims struct {
	jwt.RegisteredClaims
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// TokenVerifier checks Firebase ID token signatures against Google's
// published signing keys and validates the project-bound claims.
type TokenVerifier struct {
	config  Config
	keyFunc jwt.Keyfunc
}

// NewTokenVerifier creates a verifier that fetches and caches the
// signing keys from the configured JWK set URL.
func NewTokenVerifier(cfg Config) (*TokenVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firebase: project ID is required")
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	logger := cfg.Logger
	if logger == nil {
		logger = taskverse.DefaultLogger()
	}

	jwks, err := keyfunc.Get(cfg.jwkSetURL(), keyfunc.Options{
		RefreshInterval: cacheTTL,
		RefreshErrorHandler: func(err error) {
			logger.Warn("signing key refresh failed: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("firebase: failed to fetch signing keys: %w", err)
	}

	return &TokenVerifier{config: cfg, keyFunc: jwks.Keyfunc}, nil
}

// NewTokenVerifierWithKeys creates a verifier backed by a static key
// set instead of a remote JWK set.
func NewTokenVerifierWithKeys(cfg Config, keys map[string]keyfunc.GivenKey) (*TokenVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firebase: project ID is required")
	}
	jwks := keyfunc.NewGiven(keys)
	return &TokenVerifier{config: cfg, keyFunc: jwks.Keyfunc}, nil
}

// Verify parses and validates an ID token. The issuer and audience
// are pinned to the configured project.
func (v *TokenVerifier) Verify(tokenString string) (*IDTokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer("https://securetoken.google.com/"+v.config.ProjectID),
		jwt.WithAudience(v.config.ProjectID),
		jwt.WithExpirationRequired(),
	)

	claims := &IDTokenClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, v.keyFunc)
	if err != nil {
		return nil, normalizeVerifyError(err)
	}
	if !token.Valid {
		return nil, normalizeVerifyError(jwt.ErrTokenUnverifiable)
	}

	return claims, nil
}

func normalizeVerifyError(err error) error {
	base := taskverse.ErrInvalidCredential
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		base = taskverse.ErrAuthorizationExpired
	}

	rich := base.Clone()
	rich.Source = err
	return rich.WithMetadata(map[string]any{
		"provider": "firebase",
		"cause":    err.Error(),
	})
}
