package rbac

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGGrantRepository reads grant rows from PostgreSQL.
type PGGrantRepository struct {
	pool *pgxpool.Pool
}

// NewGrantRepository constructs a PostgreSQL grant repository.
func NewGrantRepository(pool *pgxpool.Pool) *PGGrantRepository {
	return &PGGrantRepository{pool: pool}
}

func collectGrants(rows pgx.Rows) ([]Grant, error) {
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.Code, &g.Route, &g.ContextType); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grants, nil
}

// RoleGrants returns the role's permission codes joined to active catalog
// entries. Rows referencing inactive entries are filtered here, not deleted.
func (r *PGGrantRepository) RoleGrants(ctx context.Context, roleID int64) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.code, e.route, e.context_type
		FROM role_permissions rp
		JOIN permission_entries e ON e.id = rp.permission_id
		WHERE rp.role_id = $1 AND e.active`, roleID)
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

// CustomGrants returns the principal's individual grants joined to active
// catalog entries.
func (r *PGGrantRepository) CustomGrants(ctx context.Context, principalID int64) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.code, e.route, e.context_type
		FROM custom_permissions cp
		JOIN permission_entries e ON e.id = cp.permission_id
		WHERE cp.principal_id = $1 AND e.active`, principalID)
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

// AllActiveGrants returns every active catalog entry, used by the super-role
// short-circuit.
func (r *PGGrantRepository) AllActiveGrants(ctx context.Context) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT code, route, context_type
		FROM permission_entries
		WHERE active`)
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

var _ GrantRepository = (*PGGrantRepository)(nil)
