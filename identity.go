package taskverse

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the opaque, time-bounded access token issued by the
// auth provider, plus the refresh token used to renew it.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token's lifetime has elapsed.
// A zero ExpiresAt means the lifetime is unknown and the credential is
// treated as live; the backend remains the authority either way.
func (c Credential) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return now.After(c.ExpiresAt)
}

// ExpiryFromToken decodes the exp claim from a JWT access token
// without verifying the signature. Providers that return expires_in
// seconds don't need this; it covers restore paths where only the raw
// token survived.
func ExpiryFromToken(raw string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// Identity is the currently authenticated actor. It is owned
// exclusively by the Store; consumers hold at most a transient copy
// for the duration of one operation.
type Identity struct {
	ID          string
	DisplayName string
	Email       string
	PhotoURL    string
	Credential  Credential
}

func identityFromAccount(acct *Account) *Identity {
	if acct == nil {
		return nil
	}
	return &Identity{
		ID:          acct.ID,
		DisplayName: acct.DisplayName,
		Email:       acct.Email,
		PhotoURL:    acct.PhotoURL,
		Credential:  acct.Credential,
	}
}

// clone returns a copy so subscribers never share the store's mutable
// instance.
func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	cp := *i
	return &cp
}

func (i Identity) String() string {
	return fmt.Sprintf("id=%s email=%s name=%q", i.ID, i.Email, i.DisplayName)
}
