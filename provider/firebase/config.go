package firebase

import (
	"net/http"
	"time"

	taskverse "github.com/taskverse/client-go"
)

const (
	defaultIdentityURL    = "https://identitytoolkit.googleapis.com/v1"
	defaultSecureTokenURL = "https://securetoken.googleapis.com/v1"

	// Google publishes the securetoken signing keys as a JWK set.
	defaultJWKSetURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// Config holds Firebase Auth configuration.
type Config struct {
	// APIKey is the web API key of the Firebase project.
	APIKey string

	// ProjectID is the Firebase project identifier. Required for ID
	// token verification (issuer and audience checks).
	ProjectID string

	// IdentityURL overrides the identitytoolkit endpoint (optional).
	IdentityURL string

	// SecureTokenURL overrides the token refresh endpoint (optional).
	SecureTokenURL string

	// JWKSetURL overrides where signing keys are fetched (optional).
	JWKSetURL string

	// CacheTTL is how long to cache signing keys.
	// Default: 5 minutes.
	CacheTTL time.Duration

	// HTTPClient overrides the transport (optional).
	HTTPClient *http.Client

	// Logger overrides the default logger (optional).
	Logger taskverse.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(apiKey, projectID string) Config {
	return Config{
		APIKey:    apiKey,
		ProjectID: projectID,
		CacheTTL:  5 * time.Minute,
	}
}

func (c Config) identityURL() string {
	if c.IdentityURL != "" {
		return c.IdentityURL
	}
	return defaultIdentityURL
}

func (c Config) secureTokenURL() string {
	if c.SecureTokenURL != "" {
		return c.SecureTokenURL
	}
	return defaultSecureTokenURL
}

func (c Config) jwkSetURL() string {
	if c.JWKSetURL != "" {
		return c.JWKSetURL
	}
	return defaultJWKSetURL
}
