package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"repost/internal/domain"
)

// StepFunc performs one pipeline step's work, recording its outputs on the
// video it closes over.
type StepFunc func(ctx context.Context) error

// Runner wraps one pipeline step with job bookkeeping: it opens a started
// job row, transitions the video to the step's in-progress status, invokes
// the operation, and persists the video's outputs on success. On failure
// the job is marked failed with the captured message and the error is
// returned unchanged; the video-level failure transition stays with the
// orchestrator so a failed run is recorded exactly once.
type Runner struct {
	videos domain.VideoRepository
	jobs   domain.JobRepository
	logger zerolog.Logger
}

// NewRunner creates a step runner over the given repositories.
func NewRunner(videos domain.VideoRepository, jobs domain.JobRepository, logger zerolog.Logger) *Runner {
	return &Runner{videos: videos, jobs: jobs, logger: logger}
}

// Run executes one step for the video. Every call persists at least the
// job transition and the video status, even when the operation fails.
func (r *Runner) Run(ctx context.Context, video *domain.Video, jobType domain.JobType, taskID string, inProgress domain.VideoStatus, op StepFunc) error {
	job, err := r.jobs.Start(ctx, video.ID, jobType, taskID)
	if err != nil {
		return err
	}

	if err := r.videos.SetStatus(ctx, video.ID, inProgress, ""); err != nil {
		r.failJob(ctx, job.ID, err)
		return err
	}
	video.Status = inProgress
	video.ErrorMessage = ""

	r.logger.Info().Int64("video_id", video.ID).Str("task_type", string(jobType)).Msg("pipeline: step started")

	if err := op(ctx); err != nil {
		r.failJob(ctx, job.ID, err)
		return err
	}

	if err := r.videos.Update(ctx, video); err != nil {
		r.failJob(ctx, job.ID, err)
		return err
	}

	if err := r.jobs.Complete(ctx, job.ID); err != nil {
		return err
	}

	r.logger.Info().Int64("video_id", video.ID).Str("task_type", string(jobType)).Msg("pipeline: step completed")
	return nil
}

func (r *Runner) failJob(ctx context.Context, jobID int64, cause error) {
	if err := r.jobs.Fail(ctx, jobID, cause.Error()); err != nil {
		r.logger.Error().Err(err).Int64("job_id", jobID).Msg("pipeline: failed to record job failure")
	}
}
