package repo

import (
	"context"

	"repost/internal/domain"
	"repost/internal/infra"
	"repost/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Start inserts a started job row with started_at set by the database.
func (r *JobRepositoryPG) Start(ctx context.Context, videoID int64, jobType domain.JobType, taskID string) (*domain.Job, error) {
	job := &domain.Job{
		VideoID: videoID,
		TaskID:  taskID,
		Type:    jobType,
		Status:  domain.JobStatusStarted,
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertStartedJob, videoID, taskID, jobType)
	if err := row.Scan(&job.ID, &job.StartedAt); err != nil {
		return nil, err
	}
	return job, nil
}

// CreatePending inserts a placeholder row for a not-yet-delivered invocation.
func (r *JobRepositoryPG) CreatePending(ctx context.Context, videoID int64, jobType domain.JobType, taskID string) (*domain.Job, error) {
	job := &domain.Job{
		VideoID: videoID,
		TaskID:  taskID,
		Type:    jobType,
		Status:  domain.JobStatusPending,
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertPendingJob, videoID, taskID, jobType)
	if err := row.Scan(&job.ID); err != nil {
		return nil, err
	}
	return job, nil
}

// ResumePending promotes the newest matching pending placeholder to started.
func (r *JobRepositoryPG) ResumePending(ctx context.Context, videoID int64, jobType domain.JobType, taskID string) (*domain.Job, error) {
	job := &domain.Job{
		VideoID: videoID,
		TaskID:  taskID,
		Type:    jobType,
		Status:  domain.JobStatusStarted,
	}
	row := r.sql.QueryRow(ctx, sqlinline.QResumePendingJob, videoID, jobType, taskID)
	if err := row.Scan(&job.ID, &job.StartedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// Complete marks a job completed.
func (r *JobRepositoryPG) Complete(ctx context.Context, jobID int64) error {
	_, err := r.sql.Exec(ctx, sqlinline.QCompleteJob, jobID)
	return err
}

// Fail marks a job failed with the captured error text.
func (r *JobRepositoryPG) Fail(ctx context.Context, jobID int64, errMsg string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QFailJob, jobID, errMsg)
	return err
}

// ListByVideo returns a video's jobs in creation order.
func (r *JobRepositoryPG) ListByVideo(ctx context.Context, videoID int64) ([]domain.Job, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectJobsByVideo, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var job domain.Job
		if err := rows.Scan(
			&job.ID,
			&job.VideoID,
			&job.TaskID,
			&job.Type,
			&job.Status,
			&job.StartedAt,
			&job.CompletedAt,
			&job.ErrorMessage,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
