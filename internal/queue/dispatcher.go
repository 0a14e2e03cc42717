// Package queue implements a Postgres-backed task queue that stands in for
// a message broker: enqueue assigns a correlation id, claiming uses
// FOR UPDATE SKIP LOCKED so concurrent workers never double-deliver, and
// failed tasks are redelivered with exponential backoff under the same
// correlation id until the attempt budget is exhausted.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"repost/internal/domain"
	"repost/internal/infra"
	"repost/internal/sqlinline"
)

// ErrNoTask signals an empty queue to the polling worker.
var ErrNoTask = errors.New("no task available")

const defaultMaxAttempts = 3

// Dispatcher enqueues and delivers pipeline tasks.
type Dispatcher struct {
	sql         infra.SQLExecutor
	jobs        domain.JobRepository
	logger      zerolog.Logger
	maxAttempts int
	now         func() time.Time
}

// NewDispatcher creates a dispatcher over the given SQL executor. The job
// repository is used to pre-create the pending placeholder rows the
// orchestrator's resume guard reconciles against.
func NewDispatcher(sql infra.SQLExecutor, jobs domain.JobRepository, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sql:         sql,
		jobs:        jobs,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
}

// Enqueue inserts a queued task and a pending placeholder job carrying the
// same correlation id, then returns that id.
func (d *Dispatcher) Enqueue(ctx context.Context, jobType domain.JobType, videoID int64) (string, error) {
	id := uuid.NewString()
	if _, err := d.sql.Exec(ctx, sqlinline.QEnqueueTask, id, jobType, videoID, d.maxAttempts); err != nil {
		return "", err
	}
	if _, err := d.jobs.CreatePending(ctx, videoID, jobType, id); err != nil {
		return "", err
	}
	d.logger.Info().Str("task_id", id).Int64("video_id", videoID).Str("task_type", string(jobType)).Msg("queue: task enqueued")
	return id, nil
}

// Claim delivers the oldest runnable task to the calling worker, or
// ErrNoTask when nothing is due. The claimed attempt counter includes the
// current delivery.
func (d *Dispatcher) Claim(ctx context.Context) (*domain.Task, error) {
	row := d.sql.QueryRow(ctx, sqlinline.QClaimTask)
	var task domain.Task
	if err := row.Scan(&task.ID, &task.Type, &task.VideoID, &task.Attempts, &task.MaxAttempts); err != nil {
		if infra.IsNoRows(err) {
			return nil, ErrNoTask
		}
		return nil, err
	}
	task.Status = domain.TaskStatusRunning
	return &task, nil
}

// Complete acknowledges a successfully processed task.
func (d *Dispatcher) Complete(ctx context.Context, taskID string) error {
	_, err := d.sql.Exec(ctx, sqlinline.QCompleteTask, taskID)
	return err
}

// Fail records a processing failure. Tasks with remaining attempts are
// requeued with backoff under the same correlation id; exhausted tasks are
// marked failed for good.
func (d *Dispatcher) Fail(ctx context.Context, task *domain.Task, errMsg string) error {
	if task.Attempts >= task.MaxAttempts {
		d.logger.Warn().Str("task_id", task.ID).Int("attempts", task.Attempts).Msg("queue: task exhausted retries")
		_, err := d.sql.Exec(ctx, sqlinline.QFailTask, task.ID, errMsg)
		return err
	}
	nextRun := d.now().Add(RetryBackoff(task.Attempts))
	d.logger.Info().Str("task_id", task.ID).Int("attempts", task.Attempts).Time("next_run_at", nextRun).Msg("queue: task requeued")
	_, err := d.sql.Exec(ctx, sqlinline.QRetryTask, task.ID, errMsg, nextRun)
	return err
}

// RetryBackoff returns the delay before redelivery after the given number
// of completed attempts: 2s, 4s, 8s, ...
func RetryBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 10 {
		attempts = 10
	}
	return time.Duration(1<<attempts) * time.Second
}

var _ domain.Dispatcher = (*Dispatcher)(nil)
