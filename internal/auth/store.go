package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Users(ctx context.Context) UserStore
	RefreshTokens(ctx context.Context) RefreshTokenStore
	Activations(ctx context.Context) ActivationStore
}

// UserStore manages identity records. Create must be atomic on the unique
// normalized-email constraint: concurrent registrations for the same address
// yield exactly one row and ErrEmailTaken for the losers.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	MarkActivated(ctx context.Context, id string) error
}

// RefreshTokenStore manages the refresh token lifecycle. MarkRevoked is
// conditional on the record still being live, so concurrent rotations of the
// same token see exactly one winner.
type RefreshTokenStore interface {
	Create(ctx context.Context, tok *RefreshToken) error
	Find(ctx context.Context, id string) (*RefreshToken, error)
	MarkRevoked(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// ActivationStore manages single-use activation artifacts. Consume fails with
// ErrInvalidToken once an artifact has been spent.
type ActivationStore interface {
	Create(ctx context.Context, tok *ActivationToken) error
	FindByHash(ctx context.Context, tokenHash string) (*ActivationToken, error)
	Consume(ctx context.Context, id string) error
}
