package taskverse_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	taskverse "github.com/taskverse/client-go"
)

func TestTextCode(t *testing.T) {
	assert.Equal(t, taskverse.TextCodeInvalidCredential, taskverse.TextCode(taskverse.ErrInvalidCredential))
	assert.Equal(t, taskverse.TextCodeAuthorizationExpired, taskverse.TextCode(taskverse.ErrAuthorizationExpired))
	assert.Empty(t, taskverse.TextCode(nil))
	assert.Empty(t, taskverse.TextCode(errors.New("plain")))
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, taskverse.IsWeakPassword(taskverse.ErrWeakPassword))
	assert.False(t, taskverse.IsWeakPassword(taskverse.ErrEmailInUse))

	assert.True(t, taskverse.IsNotAuthenticated(taskverse.ErrNotAuthenticated))
	assert.True(t, taskverse.IsAuthorizationExpired(taskverse.ErrAuthorizationExpired))

	assert.True(t, taskverse.IsAuthError(taskverse.ErrPopupClosed))
	assert.False(t, taskverse.IsAuthError(errors.New("plain")))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "incorrect email or password", taskverse.UserMessage(taskverse.ErrInvalidCredential))
	assert.Equal(t, "email is already in use", taskverse.UserMessage(taskverse.ErrEmailInUse))

	// Raw errors never leak transport detail to the user.
	msg := taskverse.UserMessage(errors.New("dial tcp 10.0.0.1:443: i/o timeout"))
	assert.NotContains(t, msg, "dial tcp")
	assert.NotEmpty(t, msg)

	assert.Empty(t, taskverse.UserMessage(nil))
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		weak     bool
	}{
		{"too short", "Ab1", true},
		{"no uppercase", "alllower1", true},
		{"no lowercase", "ALLUPPER1", true},
		{"empty", "", true},
		{"minimum viable", "Abcdef", false},
		{"typical", "Passw0rd", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := taskverse.ValidatePassword(tc.password)
			if tc.weak {
				assert.True(t, taskverse.IsWeakPassword(err), "expected weak password for %q", tc.password)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
