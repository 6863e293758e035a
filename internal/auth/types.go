package auth

import "time"

// User is the sole source of truth for identity. The password is stored as a
// bcrypt hash and the plaintext is never retained.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Activated    bool      `json:"activated"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RefreshToken is the persisted half of a refresh credential. Only a sha256
// hash of the secret is stored; the presented form is "<id>.<secret>".
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// ActivationToken is the single-use artifact mailed out at registration.
// ConsumedAt stays nil until the activation endpoint spends it.
type ActivationToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	ConsumedAt *time.Time
}

// TokenPair carries freshly minted session credentials.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
