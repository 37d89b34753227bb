package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/ridepass/ridepass/internal/jobs"
)

// PruneExpiredSessions deletes session credentials whose expiry has passed.
// Expired rows are already rejected at validation time, so this sweep only
// keeps the table from accumulating dead rows.
func PruneExpiredSessions(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if pool == nil {
		return nil
	}
	tag, err := pool.Exec(ctx, `DELETE FROM session_credentials WHERE expires_at < now()`)
	if err != nil {
		if logger != nil {
			logger.Error("prune sessions", slog.Any("error", err))
		}
		return err
	}
	if logger != nil && tag.RowsAffected() > 0 {
		logger.Info("pruned expired sessions",
			slog.String("job", TaskSessionsPrune),
			slog.Int64("removed", tag.RowsAffected()))
	}
	return nil
}

// HandleSessionsPruneTask adapts PruneExpiredSessions to an Asynq handler
// with run instrumentation.
func HandleSessionsPruneTask(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	metrics := jobmetrics.NewMetrics(nil)
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metrics.Track(TaskSessionsPrune)
		return tracker.End(PruneExpiredSessions(ctx, pool, logger))
	}
}
