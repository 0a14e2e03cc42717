// Package pipeline contains the orchestration engine that turns a
// submitted Instagram reel into a published TikTok post: download,
// transform, store, caption, publish, with per-step job bookkeeping and a
// resume guard against redelivered invocations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"repost/internal/domain"
)

// Result reports the terminal outcome of one pipeline run.
type Result struct {
	VideoID int64              `json:"video_id"`
	Status  domain.VideoStatus `json:"status"`
}

// Pipeline sequences the fixed step order for one video and owns the
// video's lifecycle status for the duration of the run.
type Pipeline struct {
	videos      domain.VideoRepository
	jobs        domain.JobRepository
	runner      *Runner
	fetcher     SourceFetcher
	transformer MediaTransformer
	store       ArtifactStore
	captioner   CaptionGenerator
	publisher   Publisher
	workDir     string
	logger      zerolog.Logger
}

// Options collects the pipeline's collaborators.
type Options struct {
	Videos      domain.VideoRepository
	Jobs        domain.JobRepository
	Fetcher     SourceFetcher
	Transformer MediaTransformer
	Store       ArtifactStore
	Captioner   CaptionGenerator
	Publisher   Publisher
	// WorkDir is the parent for per-run workspace directories; empty means
	// the system temp dir.
	WorkDir string
	Logger  zerolog.Logger
}

// New wires a pipeline from its collaborators.
func New(opts Options) *Pipeline {
	return &Pipeline{
		videos:      opts.Videos,
		jobs:        opts.Jobs,
		runner:      NewRunner(opts.Videos, opts.Jobs, opts.Logger),
		fetcher:     opts.Fetcher,
		transformer: opts.Transformer,
		store:       opts.Store,
		captioner:   opts.Captioner,
		publisher:   opts.Publisher,
		workDir:     opts.WorkDir,
		logger:      opts.Logger,
	}
}

// Run executes the full pipeline for one video under the given correlation
// id. Any step failure marks the video and the top-level job failed and is
// returned to the caller so the dispatcher's retry policy can decide on
// redelivery.
func (p *Pipeline) Run(ctx context.Context, videoID int64, taskID string) (*Result, error) {
	video, err := p.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("load video %d: %w", videoID, err)
	}

	topJob, err := p.resolveTopJob(ctx, videoID, taskID)
	if err != nil {
		return nil, fmt.Errorf("resolve pipeline job: %w", err)
	}

	workspace, err := os.MkdirTemp(p.workDir, fmt.Sprintf("video-%d-", videoID))
	if err != nil {
		err = fmt.Errorf("create workspace: %w", err)
		p.markFailed(ctx, videoID, topJob.ID, err)
		return nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(workspace); rmErr != nil {
			p.logger.Warn().Err(rmErr).Str("workspace", workspace).Msg("pipeline: workspace cleanup failed")
		}
	}()

	if err := p.runSteps(ctx, video, taskID, workspace); err != nil {
		p.markFailed(ctx, videoID, topJob.ID, err)
		return nil, err
	}

	if err := p.videos.SetStatus(ctx, videoID, domain.VideoStatusCompleted, ""); err != nil {
		p.markFailed(ctx, videoID, topJob.ID, err)
		return nil, err
	}
	if err := p.jobs.Complete(ctx, topJob.ID); err != nil {
		return nil, err
	}

	p.logger.Info().Int64("video_id", videoID).Msg("pipeline: run completed")
	return &Result{VideoID: videoID, Status: domain.VideoStatusCompleted}, nil
}

// resolveTopJob reconciles a possibly-redelivered invocation against the
// placeholder the dispatcher pre-created: a pending process_pipeline job
// with the same correlation id is promoted to started instead of inserting
// a duplicate started row. Without a placeholder a fresh started job is
// created.
func (p *Pipeline) resolveTopJob(ctx context.Context, videoID int64, taskID string) (*domain.Job, error) {
	job, err := p.jobs.ResumePending(ctx, videoID, domain.JobTypePipeline, taskID)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return p.jobs.Start(ctx, videoID, domain.JobTypePipeline, taskID)
}

func (p *Pipeline) runSteps(ctx context.Context, video *domain.Video, taskID, workspace string) error {
	err := p.runner.Run(ctx, video, domain.JobTypeDownloadVideo, taskID, domain.VideoStatusDownloading, func(ctx context.Context) error {
		res, err := p.fetcher.Fetch(ctx, video.InstagramURL, workspace)
		if err != nil {
			return err
		}
		video.LocalPath = res.LocalPath
		video.InstagramMediaID = res.MediaID
		return nil
	})
	if err != nil {
		return err
	}

	err = p.runner.Run(ctx, video, domain.JobTypeProcessVideo, taskID, domain.VideoStatusProcessing, func(ctx context.Context) error {
		processed, err := p.transformer.Transform(ctx, video.LocalPath, workspace)
		if err != nil {
			return err
		}
		video.LocalPath = processed
		return nil
	})
	if err != nil {
		return err
	}

	err = p.runner.Run(ctx, video, domain.JobTypeUploadStorage, taskID, domain.VideoStatusUploading, func(ctx context.Context) error {
		url, err := p.store.Put(ctx, video.LocalPath, StorageKey(video.ID))
		if err != nil {
			return err
		}
		video.StorageURL = url
		return nil
	})
	if err != nil {
		return err
	}

	// Caption and publish form one phase but keep separate job records:
	// the caption is persisted before the publish attempt and survives a
	// publish failure. Status stays at uploading until the run completes.
	err = p.runner.Run(ctx, video, domain.JobTypeGenerateCaption, taskID, domain.VideoStatusUploading, func(ctx context.Context) error {
		caption, hashtags := p.captioner.Generate(ctx, video.InstagramURL)
		video.Caption = caption
		video.Hashtags = hashtags
		return nil
	})
	if err != nil {
		return err
	}

	return p.runner.Run(ctx, video, domain.JobTypeUploadTikTok, taskID, domain.VideoStatusUploading, func(ctx context.Context) error {
		url, remoteID, err := p.publisher.Publish(ctx, video.LocalPath, video.Caption)
		if err != nil {
			return err
		}
		video.TikTokURL = url
		video.TikTokVideoID = remoteID
		return nil
	})
}

// markFailed is the single place a propagated failure becomes a terminal
// video status plus a failed top-level job.
func (p *Pipeline) markFailed(ctx context.Context, videoID, topJobID int64, cause error) {
	p.logger.Error().Err(cause).Int64("video_id", videoID).Msg("pipeline: run failed")
	if err := p.videos.SetStatus(ctx, videoID, domain.VideoStatusFailed, cause.Error()); err != nil {
		p.logger.Error().Err(err).Int64("video_id", videoID).Msg("pipeline: failed to record video failure")
	}
	if err := p.jobs.Fail(ctx, topJobID, cause.Error()); err != nil {
		p.logger.Error().Err(err).Int64("job_id", topJobID).Msg("pipeline: failed to record job failure")
	}
}
