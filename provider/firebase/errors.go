package firebase

import (
	"encoding/json"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	taskverse "github.com/taskverse/client-go"
)

// restError is the identitytoolkit error envelope.
type restError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseRESTError(body []byte) (code string, httpCode int) {
	var envelope restError
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", 0
	}
	// Messages can carry a suffix, e.g. "WEAK_PASSWORD : Password
	// should be at least 6 characters". The leading token is the code.
	msg := strings.TrimSpace(envelope.Error.Message)
	if idx := strings.IndexAny(msg, " :"); idx > 0 {
		msg = msg[:idx]
	}
	return msg, envelope.Error.Code
}

// mapAuthError folds identitytoolkit error codes into the session
// error taxonomy. Unrecognized codes degrade to the generic auth
// failure so raw backend detail never surfaces.
func mapAuthError(operation, code string, status int, body []byte) error {
	var base *goerrors.Error

	switch code {
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		base = taskverse.ErrAccountNotFound
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_ID_TOKEN", "CREDENTIAL_MISMATCH":
		base = taskverse.ErrInvalidCredential
	case "USER_DISABLED":
		base = taskverse.ErrAccountDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		base = taskverse.ErrRateLimited
	case "EMAIL_EXISTS":
		base = taskverse.ErrEmailInUse
	case "INVALID_EMAIL", "MISSING_EMAIL":
		base = taskverse.ErrInvalidEmail
	case "OPERATION_NOT_ALLOWED":
		base = taskverse.ErrOperationNotAllowed
	case "WEAK_PASSWORD":
		base = taskverse.ErrWeakPassword
	case "FEDERATED_USER_ID_ALREADY_LINKED":
		base = taskverse.ErrAccountConflict
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "MISSING_REFRESH_TOKEN":
		base = taskverse.ErrAuthorizationExpired
	default:
		base = taskverse.ErrUnknownAuth
	}

	meta := map[string]any{
		"provider":  "firebase",
		"operation": operation,
		"code":      code,
		"status":    status,
	}
	if code == "" && len(body) > 0 {
		meta["body"] = truncate(string(body), 256)
	}

	rich := base.Clone()
	return rich.WithMetadata(meta)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
