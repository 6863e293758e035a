package auth

import "errors"

var (
	// ErrNotFound is returned when a user or token record does not exist.
	ErrNotFound = errors.New("auth: not found")
	// ErrEmailTaken is returned when registration hits an existing email.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// callers cannot distinguish the two.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrNotActivated is returned when credentials are valid but the account
	// has not consumed its activation link yet.
	ErrNotActivated = errors.New("auth: account not activated")
	// ErrInvalidToken indicates the token failed validation.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrTokenExpired indicates the token was valid once but its lifetime ended.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenRevoked indicates the refresh token was already rotated or revoked.
	ErrTokenRevoked = errors.New("auth: token revoked")
	// ErrInvalidInput is returned for malformed registration or login input.
	ErrInvalidInput = errors.New("auth: invalid input")
)
