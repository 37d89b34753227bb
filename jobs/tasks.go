package jobs

import "github.com/hibiken/asynq"

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsPrune is the task type for expired session cleanup.
	TaskSessionsPrune = "sessions:prune"
)

// NewSessionsPruneTask constructs the prune task. It carries no payload;
// the handler always sweeps everything past its expiry.
func NewSessionsPruneTask() *asynq.Task {
	return asynq.NewTask(TaskSessionsPrune, nil)
}
