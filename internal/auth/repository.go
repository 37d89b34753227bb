package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridepass/ridepass/internal/platform/db"
	"github.com/ridepass/ridepass/internal/platform/httpx"
)

// ValidatedSession pairs a credential row with the principal it belongs to.
type ValidatedSession struct {
	Credential SessionCredential
	Principal  Principal
}

// Repository defines persistence operations for the auth module.
type Repository interface {
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)
	GetAccountByID(ctx context.Context, id int64) (*Account, error)
	ReplaceSession(ctx context.Context, cred SessionCredential) error
	GetSessionByTokenHash(ctx context.Context, hash string) (*ValidatedSession, error)
	TouchSession(ctx context.Context, id string, at time.Time) error
	DeleteSessionsByPrincipal(ctx context.Context, principalID int64) error
	DeleteSessionByTokenHash(ctx context.Context, hash string) error
	UpdateLastLogin(ctx context.Context, principalID int64, at time.Time) error
	UpdatePasswordHash(ctx context.Context, principalID int64, hash string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `p.id, p.username, p.email, p.password_hash, p.role_id, r.name, p.context_type, p.context_id, p.last_login_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var acc Account
	if err := row.Scan(
		&acc.ID, &acc.Username, &acc.Email, &acc.PasswordHash,
		&acc.RoleID, &acc.RoleName, &acc.ContextType, &acc.ContextID,
		&acc.LastLoginAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// GetAccountByUsername fetches an account by its unique username.
func (r *PGRepository) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM principals p
		JOIN roles r ON r.id = p.role_id
		WHERE p.username = $1`, username)
	return scanAccount(row)
}

// GetAccountByID fetches an account by id.
func (r *PGRepository) GetAccountByID(ctx context.Context, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM principals p
		JOIN roles r ON r.id = p.role_id
		WHERE p.id = $1`, id)
	return scanAccount(row)
}

// ReplaceSession removes every credential held by the principal and inserts
// the new one atomically, enforcing the single-active-session invariant.
func (r *PGRepository) ReplaceSession(ctx context.Context, cred SessionCredential) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM session_credentials WHERE principal_id = $1`, cred.PrincipalID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO session_credentials (id, token_hash, principal_id, created_at, last_used_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			cred.ID, cred.TokenHash, cred.PrincipalID, cred.CreatedAt, cred.LastUsedAt, cred.ExpiresAt)
		return err
	})
}

// GetSessionByTokenHash resolves a credential hash to its session row and
// owning principal. A hash without a live principal yields ErrNotFound.
func (r *PGRepository) GetSessionByTokenHash(ctx context.Context, hash string) (*ValidatedSession, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT s.id, s.token_hash, s.principal_id, s.created_at, s.last_used_at, s.expires_at,
		       p.id, p.username, p.email, p.role_id, r.name, p.context_type, p.context_id
		FROM session_credentials s
		JOIN principals p ON p.id = s.principal_id
		JOIN roles r ON r.id = p.role_id
		WHERE s.token_hash = $1`, hash)

	var vs ValidatedSession
	if err := row.Scan(
		&vs.Credential.ID, &vs.Credential.TokenHash, &vs.Credential.PrincipalID,
		&vs.Credential.CreatedAt, &vs.Credential.LastUsedAt, &vs.Credential.ExpiresAt,
		&vs.Principal.ID, &vs.Principal.Username, &vs.Principal.Email,
		&vs.Principal.RoleID, &vs.Principal.RoleName,
		&vs.Principal.ContextType, &vs.Principal.ContextID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &vs, nil
}

// TouchSession updates the advisory last_used_at timestamp.
func (r *PGRepository) TouchSession(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE session_credentials SET last_used_at = $2 WHERE id = $1`, id, at)
	return err
}

// DeleteSessionsByPrincipal removes every credential for the principal.
func (r *PGRepository) DeleteSessionsByPrincipal(ctx context.Context, principalID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM session_credentials WHERE principal_id = $1`, principalID)
	return err
}

// DeleteSessionByTokenHash removes the credential matching the hash, if any.
func (r *PGRepository) DeleteSessionByTokenHash(ctx context.Context, hash string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM session_credentials WHERE token_hash = $1`, hash)
	return err
}

// UpdateLastLogin stamps the principal's last successful login.
func (r *PGRepository) UpdateLastLogin(ctx context.Context, principalID int64, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE principals SET last_login_at = $2 WHERE id = $1`, principalID, at)
	return err
}

// UpdatePasswordHash replaces the stored password hash.
func (r *PGRepository) UpdatePasswordHash(ctx context.Context, principalID int64, hash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE principals SET password_hash = $2, updated_at = now() WHERE id = $1`, principalID, hash)
	return err
}

var _ Repository = (*PGRepository)(nil)
