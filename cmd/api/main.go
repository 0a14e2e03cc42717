package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"repost/internal/adapter/repo"
	"repost/internal/http/handlers"
	httpapi "repost/internal/http/httpapi"
	"repost/internal/infra"
	"repost/internal/queue"
	"repost/internal/tiktok"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	videos := repo.NewVideoRepository(runner)
	jobs := repo.NewJobRepository(runner)
	tokens := repo.NewTokenRepository(runner)
	dispatcher := queue.NewDispatcher(runner, jobs, logger)

	tiktokSvc := tiktok.NewService(tiktok.Options{
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

	app := &handlers.App{
		Videos:     videos,
		Jobs:       jobs,
		Dispatcher: dispatcher,
		TikTok:     tiktokSvc,
		Logger:     logger,
	}

	router := httpapi.NewRouter(app, logger, cfg.CORSAllowedOrigins)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
