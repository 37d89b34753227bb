package catalog

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridepass/ridepass/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for the catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActive returns active entries, optionally filtered by context type.
func (r *Repository) ListActive(ctx context.Context, contextType string) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, title, category, context_type, route, active, created_at, updated_at
		FROM permission_entries
		WHERE active AND ($1 = '' OR lower(context_type) = lower($1))
		ORDER BY category, title`, contextType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Code, &e.Title, &e.Category, &e.ContextType, &e.Route, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// UpsertBatch inserts or updates entries keyed on code inside a single
// transaction. Re-running the same batch is a no-op beyond timestamps.
func (r *Repository) UpsertBatch(ctx context.Context, entries []Entry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, e := range entries {
			if _, err := tx.Exec(ctx, `
				INSERT INTO permission_entries (code, title, category, context_type, route, active)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (code) DO UPDATE SET
					title = EXCLUDED.title,
					category = EXCLUDED.category,
					context_type = EXCLUDED.context_type,
					route = EXCLUDED.route,
					active = EXCLUDED.active,
					updated_at = now()`,
				e.Code, e.Title, e.Category, e.ContextType, e.Route, e.Active); err != nil {
				return err
			}
		}
		return nil
	})
}
