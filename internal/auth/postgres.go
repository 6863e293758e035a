package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. Atomicity of the auth
// invariants rides on the schema: a unique index on users.email and
// conditional updates on refresh_tokens.revoked and
// activation_tokens.consumed_at.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users(context.Context) UserStore                 { return &pgUsers{db: s.db} }
func (s *PGStore) RefreshTokens(context.Context) RefreshTokenStore { return &pgRefresh{db: s.db} }
func (s *PGStore) Activations(context.Context) ActivationStore     { return &pgActivations{db: s.db} }

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// User store ---------------------------------------------------------------

type pgUsers struct{ db *sql.DB }

const userCols = `id, name, email, password_hash, activated, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Activated, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *pgUsers) Create(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, name, email, password_hash) values($1,$2,$3,$4)`,
		u.ID, u.Name, u.Email, u.PasswordHash,
	)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *pgUsers) Find(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select `+userCols+` from users where id=$1`, id))
}

func (s *pgUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select `+userCols+` from users where email=$1`, email))
}

func (s *pgUsers) MarkActivated(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set activated = true, updated_at = now() where id=$1 and activated = false`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already active or absent; distinguish so callers can report a
		// missing user but treat re-activation as a no-op.
		var exists bool
		if err := s.db.QueryRowContext(ctx, `select exists(select 1 from users where id=$1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// Refresh token store ------------------------------------------------------

type pgRefresh struct{ db *sql.DB }

func (s *pgRefresh) Create(ctx context.Context, tok *RefreshToken) error {
	_, err := s.db.ExecContext(ctx,
		`insert into refresh_tokens(id, user_id, token_hash, expires_at) values($1,$2,$3,$4)`,
		tok.ID, tok.UserID, tok.TokenHash, tok.ExpiresAt,
	)
	return err
}

func (s *pgRefresh) Find(ctx context.Context, id string) (*RefreshToken, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, user_id, token_hash, expires_at, created_at, revoked from refresh_tokens where id=$1`, id)
	var t RefreshToken
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &t.Revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *pgRefresh) MarkRevoked(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked = true where id=$1 and revoked = false`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTokenRevoked
	}
	return nil
}

func (s *pgRefresh) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked = true where user_id=$1 and revoked = false`, userID)
	return err
}

// Activation token store ---------------------------------------------------

type pgActivations struct{ db *sql.DB }

func (s *pgActivations) Create(ctx context.Context, tok *ActivationToken) error {
	_, err := s.db.ExecContext(ctx,
		`insert into activation_tokens(id, user_id, token_hash, expires_at) values($1,$2,$3,$4)`,
		tok.ID, tok.UserID, tok.TokenHash, tok.ExpiresAt,
	)
	return err
}

func (s *pgActivations) FindByHash(ctx context.Context, tokenHash string) (*ActivationToken, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, user_id, token_hash, expires_at, created_at, consumed_at from activation_tokens where token_hash=$1`, tokenHash)
	var (
		t        ActivationToken
		consumed sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &consumed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if consumed.Valid {
		t.ConsumedAt = &consumed.Time
	}
	return &t, nil
}

func (s *pgActivations) Consume(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update activation_tokens set consumed_at = now() where id=$1 and consumed_at is null`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrInvalidToken
	}
	return nil
}
