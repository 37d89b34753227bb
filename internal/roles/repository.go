package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridepass/ridepass/internal/platform/db"
	"github.com/ridepass/ridepass/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for roles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

func mapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: role name must be unique", httpx.ErrDuplicate)
	}
	return err
}

const roleDetailQuery = `
	SELECT r.id, r.name, r.is_default, r.context_type, r.created_at, r.updated_at,
	       COALESCE(array_agg(e.code ORDER BY e.code) FILTER (WHERE e.code IS NOT NULL), '{}'),
	       (SELECT count(*) FROM principals p WHERE p.role_id = r.id)
	FROM roles r
	LEFT JOIN role_permissions rp ON rp.role_id = r.id
	LEFT JOIN permission_entries e ON e.id = rp.permission_id AND e.active`

func scanRoleDetail(row pgx.Row) (RoleDetail, error) {
	var d RoleDetail
	if err := row.Scan(
		&d.ID, &d.Name, &d.IsDefault, &d.ContextType, &d.CreatedAt, &d.UpdatedAt,
		&d.Permissions, &d.AssignedCount,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleDetail{}, httpx.ErrNotFound
		}
		return RoleDetail{}, err
	}
	return d, nil
}

// ListRoles returns all roles with permission codes and assignment counts.
func (r *Repository) ListRoles(ctx context.Context) ([]RoleDetail, error) {
	rows, err := r.pool.Query(ctx, roleDetailQuery+`
		GROUP BY r.id
		ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []RoleDetail
	for rows.Next() {
		detail, err := scanRoleDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// GetRole fetches one role with its detail.
func (r *Repository) GetRole(ctx context.Context, id int64) (RoleDetail, error) {
	row := r.pool.QueryRow(ctx, roleDetailQuery+`
		WHERE r.id = $1
		GROUP BY r.id`, id)
	return scanRoleDetail(row)
}

// CreateRole inserts a role and attaches the given permission codes in one
// transaction. Codes not matching an active catalog entry are skipped.
func (r *Repository) CreateRole(ctx context.Context, name string, codes []string) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO roles (name, is_default) VALUES ($1, false)
			RETURNING id`, name).Scan(&id); err != nil {
			return mapUnique(err)
		}
		return insertRolePermissions(ctx, tx, id, codes)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// RenameRole updates the role name.
func (r *Repository) RenameRole(ctx context.Context, id int64, name string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE roles SET name = $2, updated_at = now() WHERE id = $1`, id, name)
	if err != nil {
		return mapUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ReplacePermissions swaps the role's entire permission set atomically:
// existing rows are deleted and the new set inserted in one transaction, so
// a failure leaves the prior state untouched.
func (r *Repository) ReplacePermissions(ctx context.Context, roleID int64, codes []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		return insertRolePermissions(ctx, tx, roleID, codes)
	})
}

// DeleteRoleReassign moves every principal on the role to the fallback role
// (a designated default role, else the lowest-id survivor) and removes the
// role, all inside one transaction. It returns the fallback id used.
func (r *Repository) DeleteRoleReassign(ctx context.Context, roleID int64) (int64, error) {
	var fallbackID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT id FROM roles
			WHERE id <> $1
			ORDER BY is_default DESC, id ASC
			LIMIT 1`, roleID).Scan(&fallbackID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: cannot delete the last role", httpx.ErrValidation)
			}
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE principals SET role_id = $2 WHERE role_id = $1`, roleID, fallbackID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, roleID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return fallbackID, nil
}

func insertRolePermissions(ctx context.Context, tx pgx.Tx, roleID int64, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, e.id FROM permission_entries e
		WHERE e.code = ANY($2) AND e.active
		ON CONFLICT DO NOTHING`, roleID, codes)
	return err
}
