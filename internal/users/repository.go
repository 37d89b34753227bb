package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridepass/ridepass/internal/platform/db"
	"github.com/ridepass/ridepass/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for principals.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const principalQuery = `
	SELECT p.id, p.username, p.email, p.role_id, r.name, p.context_type, p.context_id,
	       COALESCE(array_agg(e.code ORDER BY e.code) FILTER (WHERE e.code IS NOT NULL), '{}'),
	       p.created_at, p.updated_at
	FROM principals p
	JOIN roles r ON r.id = p.role_id
	LEFT JOIN custom_permissions cp ON cp.principal_id = p.id
	LEFT JOIN permission_entries e ON e.id = cp.permission_id AND e.active`

func scanPrincipal(row pgx.Row) (PrincipalAccount, error) {
	var acc PrincipalAccount
	if err := row.Scan(
		&acc.ID, &acc.Username, &acc.Email, &acc.RoleID, &acc.RoleName,
		&acc.ContextType, &acc.ContextID, &acc.CustomPermissions,
		&acc.CreatedAt, &acc.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PrincipalAccount{}, httpx.ErrNotFound
		}
		return PrincipalAccount{}, err
	}
	return acc, nil
}

// ListPrincipals returns all principals with role and custom grant detail.
func (r *Repository) ListPrincipals(ctx context.Context) ([]PrincipalAccount, error) {
	rows, err := r.pool.Query(ctx, principalQuery+`
		GROUP BY p.id, r.name
		ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []PrincipalAccount
	for rows.Next() {
		acc, err := scanPrincipal(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetPrincipal fetches one principal with detail.
func (r *Repository) GetPrincipal(ctx context.Context, id int64) (PrincipalAccount, error) {
	row := r.pool.QueryRow(ctx, principalQuery+`
		WHERE p.id = $1
		GROUP BY p.id, r.name`, id)
	return scanPrincipal(row)
}

// ReplaceCustomPermissions swaps the principal's entire custom grant set in
// one transaction. Codes not matching an active catalog entry are skipped.
func (r *Repository) ReplaceCustomPermissions(ctx context.Context, principalID int64, codes []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM custom_permissions WHERE principal_id = $1`, principalID); err != nil {
			return err
		}
		if len(codes) == 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO custom_permissions (principal_id, permission_id)
			SELECT $1, e.id FROM permission_entries e
			WHERE e.code = ANY($2) AND e.active
			ON CONFLICT DO NOTHING`, principalID, codes)
		return err
	})
}
