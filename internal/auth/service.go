package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"pennywise.org/internal/ids"
	"pennywise.org/internal/obs"
)

const (
	defaultAccessTTL     = 15 * time.Minute
	defaultRefreshTTL    = 30 * 24 * time.Hour
	defaultActivationTTL = 24 * time.Hour

	minPasswordLength = 8
)

// ActivationMailer dispatches the activation link to a freshly registered
// address. Implementations live outside this package; dispatch failures never
// roll back registration.
type ActivationMailer interface {
	SendActivation(ctx context.Context, toEmail, token string) error
}

// Service orchestrates registration, activation, login, token refresh and
// logout over the credential store, the token signer and the mail dispatcher.
type Service struct {
	store  Store
	signer TokenSigner
	mailer ActivationMailer
	now    func() time.Time

	accessTTL     time.Duration
	refreshTTL    time.Duration
	activationTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithActivationTTL configures how long activation artifacts stay valid.
func WithActivationTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.activationTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the authentication service. The mailer may be nil,
// in which case activation links are only written to the audit log.
func NewService(store Store, signer TokenSigner, mailer ActivationMailer, opts ...ServiceOption) *Service {
	svc := &Service{
		store:         store,
		signer:        signer,
		mailer:        mailer,
		now:           time.Now,
		accessTTL:     defaultAccessTTL,
		refreshTTL:    defaultRefreshTTL,
		activationTTL: defaultActivationTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// NormalizeEmail lower-cases and trims an address; identity is keyed on the
// normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a pending account and issues its activation artifact.
// Duplicate email always yields ErrEmailTaken regardless of the existing
// account's activation state. A failed mail dispatch is logged and reported
// to no one: the account stays created and pending.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.issueActivation(ctx, user.ID)
	if err != nil {
		// The account exists and a fresh artifact can be issued later;
		// surface the dispatch problem in the logs only.
		obs.Log("error", "activation issue failed", map[string]any{"user_id": user.ID, "error": err.Error()})
		return user, nil
	}
	if s.mailer != nil {
		if err := s.mailer.SendActivation(ctx, user.Email, token); err != nil {
			obs.Log("warn", "activation mail dispatch failed", map[string]any{"user_id": user.ID, "error": err.Error()})
		}
	}
	return user, nil
}

// issueActivation persists a crypto-random single-use artifact and returns
// its plaintext form for the mail link.
func (s *Service) issueActivation(ctx context.Context, userID string) (string, error) {
	secret, hash, err := newOpaqueSecret()
	if err != nil {
		return "", err
	}
	rec := &ActivationToken{
		ID:        ids.New(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.activationTTL),
	}
	if err := s.store.Activations(ctx).Create(ctx, rec); err != nil {
		return "", err
	}
	return secret, nil
}

// Activate consumes an activation artifact exactly once and flips the owning
// account to active. Activation of an already active account is a no-op.
func (s *Service) Activate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}
	activations := s.store.Activations(ctx)

	rec, err := activations.FindByHash(ctx, hashSecret(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if rec.ConsumedAt != nil {
		return "", ErrInvalidToken
	}
	if s.now().After(rec.ExpiresAt) {
		return "", ErrTokenExpired
	}
	if err := activations.Consume(ctx, rec.ID); err != nil {
		return "", err
	}
	if err := s.store.Users(ctx).MarkActivated(ctx, rec.UserID); err != nil {
		return "", err
	}
	return rec.UserID, nil
}

// Login verifies credentials and mints a session pair. Unknown email and
// wrong password fail identically with ErrInvalidCredentials; a valid but
// not yet activated account fails with ErrNotActivated. Issuing the pair
// revokes any prior refresh tokens for the user.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, *User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	user, err := s.store.Users(ctx).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrInvalidCredentials
		}
		return TokenPair{}, nil, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	if !user.Activated {
		return TokenPair{}, nil, ErrNotActivated
	}
	pair, err := s.mintPair(ctx, user.ID)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, user, nil
}

// Refresh rotates a refresh token: the presented token must match a stored,
// unexpired, non-revoked record. The old record is revoked before the new
// pair is minted; of two concurrent refreshes with the same token exactly one
// succeeds.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	tokenID, secret, err := splitRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	store := s.store.RefreshTokens(ctx)
	rec, err := store.Find(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, err
	}
	if rec.Revoked {
		return TokenPair{}, ErrTokenRevoked
	}
	if s.now().After(rec.ExpiresAt) {
		return TokenPair{}, ErrTokenExpired
	}
	if !secureCompareHash(rec.TokenHash, secret) {
		// A wrong secret for a known id smells like a forged token; burn
		// the record so the real one cannot be replayed either.
		_ = store.MarkRevoked(ctx, rec.ID)
		return TokenPair{}, ErrInvalidToken
	}

	if err := store.MarkRevoked(ctx, rec.ID); err != nil {
		if errors.Is(err, ErrTokenRevoked) || errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrTokenRevoked
		}
		return TokenPair{}, err
	}

	return s.mintRotated(ctx, rec.UserID)
}

// Logout revokes all refresh tokens for the user. The access token stays
// valid until natural expiry; its short lifetime bounds the exposure window.
func (s *Service) Logout(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidInput
	}
	return s.store.RefreshTokens(ctx).RevokeAllForUser(ctx, userID)
}

// Authenticate validates an access token by signature and expiry only and
// returns the user id it was issued for. Storage is never consulted.
func (s *Service) Authenticate(_ context.Context, accessToken string) (string, error) {
	return s.signer.Verify(accessToken)
}

// mintPair revokes the user's live refresh tokens and issues a fresh pair,
// so at most one refresh chain exists per user.
func (s *Service) mintPair(ctx context.Context, userID string) (TokenPair, error) {
	if err := s.store.RefreshTokens(ctx).RevokeAllForUser(ctx, userID); err != nil {
		return TokenPair{}, err
	}
	return s.mintRotated(ctx, userID)
}

// mintRotated issues a new access+refresh pair without touching existing
// records; rotation callers have already revoked the predecessor.
func (s *Service) mintRotated(ctx context.Context, userID string) (TokenPair, error) {
	now := s.now()
	accessToken, accessExp, err := s.signer.Sign(userID, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	secret, hash, err := newOpaqueSecret()
	if err != nil {
		return TokenPair{}, err
	}
	rec := &RefreshToken{
		ID:        ids.New(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.store.RefreshTokens(ctx).Create(ctx, rec); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     rec.ID + "." + secret,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

func newOpaqueSecret() (secret, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	secret = base64.RawURLEncoding.EncodeToString(buf)
	return secret, hashSecret(secret), nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func splitRefreshToken(raw string) (id, secret string, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid refresh token format")
	}
	return parts[0], parts[1], nil
}

func secureCompareHash(expectedHash, secret string) bool {
	actual := hashSecret(secret)
	if len(expectedHash) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expectedHash), []byte(actual)) == 1
}
