package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"repost/internal/http/handlers"
	"repost/internal/middleware"
)

func NewRouter(app *handlers.App, logger zerolog.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.CORS(allowedOrigins),
		middleware.Logger(logger),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/videos", func(r chi.Router) {
			r.Post("/", app.VideosCreate)
			r.Get("/", app.VideosList)
			r.Get("/{id}", app.VideosGet)
			r.Patch("/{id}", app.VideosUpdate)
			r.Delete("/{id}", app.VideosDelete)
			r.Get("/{id}/jobs", app.VideosJobs)
		})

		r.Get("/stats/summary", app.StatsSummary)

		r.Route("/tiktok", func(r chi.Router) {
			r.Get("/auth-url", app.TikTokAuthURL)
			r.Get("/callback", app.TikTokCallback)
			r.Get("/account", app.TikTokAccount)
		})
	})

	return r
}
