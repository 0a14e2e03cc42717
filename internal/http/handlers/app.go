package handlers

import (
	"encoding/json"
	"net/http"

	"repost/internal/domain"
	"repost/internal/infra"
	"repost/internal/tiktok"
)

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Videos     domain.VideoRepository
	Jobs       domain.JobRepository
	Dispatcher domain.Dispatcher
	TikTok     *tiktok.Service
	Logger     infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}
