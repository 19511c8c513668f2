// Package firebase implements the authentication provider over the
// Firebase Auth REST API, plus local ID token verification against
// Google's published signing keys.
package firebase
