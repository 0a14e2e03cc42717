package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"repost/internal/adapter/repo"
	"repost/internal/captioner"
	"repost/internal/domain"
	"repost/internal/infra"
	"repost/internal/instagram"
	"repost/internal/mediaproc"
	"repost/internal/pipeline"
	"repost/internal/queue"
	"repost/internal/storage"
	"repost/internal/tiktok"
)

type taskWorker struct {
	ctx          context.Context
	dispatcher   *queue.Dispatcher
	pipeline     *pipeline.Pipeline
	pollInterval time.Duration
	logger       zerolog.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	videos := repo.NewVideoRepository(runner)
	jobs := repo.NewJobRepository(runner)
	tokens := repo.NewTokenRepository(runner)
	dispatcher := queue.NewDispatcher(runner, jobs, logger)

	store, err := buildStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	fetcher := instagram.NewFetcher(instagram.Options{
		BaseURL:   cfg.InstagramBaseURL,
		UserAgent: cfg.InstagramUserAgent,
		Logger:    logger,
	})
	processor := mediaproc.NewProcessor(cfg.FFmpegPath, logger)
	captions := captioner.New(captioner.Options{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Logger:  logger,
	})
	publisher := tiktok.NewService(tiktok.Options{
		ClientKey:    cfg.TikTokClientKey,
		ClientSecret: cfg.TikTokClientSecret,
		RedirectURI:  cfg.TikTokRedirectURI,
		APIBaseURL:   cfg.TikTokAPIBaseURL,
		AuthBaseURL:  cfg.TikTokAuthBaseURL,
		Scopes:       cfg.TikTokScopes,
		MockMode:     cfg.TikTokMockMode,
		Tokens:       tokens,
		Logger:       logger,
	})

	workDir := cfg.WorkDir
	if workDir != "" {
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			logger.Fatal().Err(err).Msg("worker: failed to create work dir")
		}
	}

	pipe := pipeline.New(pipeline.Options{
		Videos:      videos,
		Jobs:        jobs,
		Fetcher:     fetcher,
		Transformer: processor,
		Store:       store,
		Captioner:   captions,
		Publisher:   publisher,
		WorkDir:     workDir,
		Logger:      logger,
	})

	worker := &taskWorker{
		ctx:          ctx,
		dispatcher:   dispatcher,
		pipeline:     pipe,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func buildStore(cfg *infra.Config, logger zerolog.Logger) (pipeline.ArtifactStore, error) {
	if cfg.StorageBackend == "r2" {
		return storage.NewS3Store(storage.S3Options{
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			Bucket:          cfg.R2Bucket,
			Endpoint:        cfg.R2Endpoint,
			PublicBaseURL:   cfg.R2PublicBaseURL,
			Region:          cfg.R2Region,
			Logger:          logger,
		})
	}
	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	return storage.NewFileStore(storagePath, cfg.StorageBaseURL)
}

func (w *taskWorker) Run() error {
	w.logger.Info().Dur("poll_interval", w.pollInterval).Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		task, err := w.dispatcher.Claim(w.ctx)
		if err != nil {
			if errors.Is(err, queue.ErrNoTask) {
				w.sleep(w.pollInterval)
				continue
			}
			if w.ctx.Err() != nil {
				return w.ctx.Err()
			}
			w.logger.Error().Err(err).Msg("worker: failed to claim task")
			w.sleep(w.pollInterval)
			continue
		}

		w.handleTask(task)
	}
}

func (w *taskWorker) handleTask(task *domain.Task) {
	w.logger.Info().
		Str("task_id", task.ID).
		Str("task_type", string(task.Type)).
		Int64("video_id", task.VideoID).
		Int("attempt", task.Attempts).
		Msg("worker: picked task")

	if err := w.dispatch(task); err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("worker: task failed")
		if failErr := w.dispatcher.Fail(w.ctx, task, err.Error()); failErr != nil {
			w.logger.Error().Err(failErr).Str("task_id", task.ID).Msg("worker: failed to record task failure")
		}
		return
	}
	if err := w.dispatcher.Complete(w.ctx, task.ID); err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("worker: failed to mark task completed")
	}
}

func (w *taskWorker) dispatch(task *domain.Task) error {
	switch task.Type {
	case domain.JobTypePipeline:
		_, err := w.pipeline.Run(w.ctx, task.VideoID, task.ID)
		return err
	default:
		return fmt.Errorf("unsupported task type %q", task.Type)
	}
}

func (w *taskWorker) sleep(d time.Duration) {
	select {
	case <-w.ctx.Done():
	case <-time.After(d):
	}
}
