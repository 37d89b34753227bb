// Package audit records administration mutations for traceability.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is one recorded administration mutation.
type Event struct {
	ID        int64
	ActorID   int64
	Action    string
	Entity    string
	EntityID  int64
	Detail    string
	CreatedAt time.Time
}

// Repository persists audit events.
type Repository interface {
	Insert(ctx context.Context, event Event) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert appends an audit event.
func (r *PGRepository) Insert(ctx context.Context, event Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_events (actor_id, action, entity, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5)`,
		event.ActorID, event.Action, event.Entity, event.EntityID, event.Detail)
	return err
}

var _ Repository = (*PGRepository)(nil)

// Service records events best-effort: an audit failure is logged but never
// fails the mutation it describes.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs an audit service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Record appends the event.
func (s *Service) Record(ctx context.Context, event Event) {
	if s == nil || s.repo == nil {
		return
	}
	if err := s.repo.Insert(ctx, event); err != nil {
		s.logger.Warn("record audit event",
			slog.String("action", event.Action),
			slog.Any("error", err))
	}
}
