package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string
	fail   bool
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{tokens: map[string]string{}}
}

func (m *captureMailer) SendActivation(_ context.Context, toEmail, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("mail provider unreachable")
	}
	m.tokens[toEmail] = token
	return nil
}

func (m *captureMailer) tokenFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *captureMailer, *testClock) {
	t.Helper()
	signer, err := NewHMACSigner("test-secret", "pennywise-test")
	require.NoError(t, err)
	clock := &testClock{now: time.Now().UTC()}
	signer.now = clock.Now
	mailer := newCaptureMailer()
	svc := NewService(NewMemoryStore(), signer, mailer, WithClock(clock.Now))
	return svc, mailer, clock
}

func registerAndActivate(t *testing.T, svc *Service, mailer *captureMailer, email string) *User {
	t.Helper()
	ctx := context.Background()
	user, err := svc.Register(ctx, "Test User", email, "password123")
	require.NoError(t, err)
	token := mailer.tokenFor(email)
	require.NotEmpty(t, token)
	userID, err := svc.Activate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)
	return user
}

func TestRegisterNormalizesEmailAndHashesPassword(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "  Alice@Example.COM ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.Activated)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.NoError(t, VerifyPassword(user.PasswordHash, "password123"))
	assert.NotEmpty(t, mailer.tokenFor("alice@example.com"))
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Imposter", "ALICE@example.com", "otherpassword")
	assert.ErrorIs(t, err, ErrEmailTaken)

	// Also a conflict once the first account is active.
	_, err = svc.Activate(ctx, mailer.tokenFor("alice@example.com"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Imposter", "alice@example.com", "otherpassword")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRejectsMalformedInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "a@b.co", "password123")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Register(ctx, "Bob", "not-an-email", "password123")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Register(ctx, "Bob", "bob@example.com", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterSurvivesMailDispatchFailure(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	mailer.fail = true

	user, err := svc.Register(context.Background(), "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, user.Activated)

	// Account exists and is pending even though no mail went out.
	_, _, err = svc.Login(context.Background(), "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrNotActivated)
}

func TestLoginBeforeActivation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrNotActivated)
}

func TestLoginUniformFailures(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()
	registerAndActivate(t, svc, mailer, "alice@example.com")

	_, _, wrongPass := svc.Login(ctx, "alice@example.com", "wrongpassword")
	_, _, unknown := svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, wrongPass, unknown)
}

func TestLoginIssuesVerifiablePair(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()
	user := registerAndActivate(t, svc, mailer, "alice@example.com")

	pair, got, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.AccessExpiresAt.Before(pair.RefreshExpiresAt))

	userID, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestActivationIsSingleUse(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	token := mailer.tokenFor("alice@example.com")

	_, err = svc.Activate(ctx, token)
	require.NoError(t, err)
	_, err = svc.Activate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestActivationExpires(t *testing.T) {
	svc, mailer, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)
	_, err = svc.Activate(ctx, mailer.tokenFor("alice@example.com"))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestActivateUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Activate(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRotationRejectsReplay(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()
	registerAndActivate(t, svc, mailer, "alice@example.com")

	pair, _, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// Replay of the original token must fail; the rotated token still works.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshExpiredToken(t *testing.T) {
	svc, mailer, clock := newTestService(t)
	ctx := context.Background()
	registerAndActivate(t, svc, mailer, "alice@example.com")

	pair, _, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	clock.Advance(31 * 24 * time.Hour)
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshWithForgedSecretBurnsRecord(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()
	registerAndActivate(t, svc, mailer, "alice@example.com")

	pair, _, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	id, _, err := splitRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, id+".forged-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The legitimate token was burned along with the forgery attempt.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefreshMalformedToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	for _, raw := range []string{"", "justonepart", "a.b.c", "."} {
		_, err := svc.Refresh(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", raw)
	}
}

func TestLogoutRevokesRefreshTokens(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()
	user := registerAndActivate(t, svc, mailer, "alice@example.com")

	pair, _, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// Access token is still valid until natural expiry.
	userID, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestLoginRevokesPriorRefreshChain(t *testing.T) {
	svc, mailer, _ := newTestService(t)
	ctx := context.Background()
	registerAndActivate(t, svc, mailer, "alice@example.com")

	first, _, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}
