package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"repost/internal/captioner"
	"repost/internal/domain"
	"repost/internal/instagram"
)

const (
	defaultListLimit = 100
	maxListLimit     = 200
)

type videoCreateRequest struct {
	InstagramURL string `json:"instagram_url"`
}

type videoUpdateRequest struct {
	Caption  *string  `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

type videoResponse struct {
	ID               int64     `json:"id"`
	InstagramURL     string    `json:"instagram_url"`
	InstagramMediaID string    `json:"instagram_media_id,omitempty"`
	LocalPath        string    `json:"local_path,omitempty"`
	StorageURL       string    `json:"storage_url,omitempty"`
	TikTokURL        string    `json:"tiktok_url,omitempty"`
	TikTokVideoID    string    `json:"tiktok_video_id,omitempty"`
	Caption          string    `json:"caption,omitempty"`
	Hashtags         []string  `json:"hashtags"`
	Status           string    `json:"status"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toVideoResponse(v *domain.Video) videoResponse {
	hashtags := v.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	return videoResponse{
		ID:               v.ID,
		InstagramURL:     v.InstagramURL,
		InstagramMediaID: v.InstagramMediaID,
		LocalPath:        v.LocalPath,
		StorageURL:       v.StorageURL,
		TikTokURL:        v.TikTokURL,
		TikTokVideoID:    v.TikTokVideoID,
		Caption:          v.Caption,
		Hashtags:         hashtags,
		Status:           string(v.Status),
		ErrorMessage:     v.ErrorMessage,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

// VideosCreate registers a new reel and queues its processing pipeline.
// A dispatcher outage degrades to a stored warning instead of failing the
// request; the record stays pending for a later retry.
func (a *App) VideosCreate(w http.ResponseWriter, r *http.Request) {
	var req videoCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if _, err := instagram.ExtractShortcode(req.InstagramURL); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	video := &domain.Video{InstagramURL: req.InstagramURL, Status: domain.VideoStatusPending}
	if err := a.Videos.Create(r.Context(), video); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to create video")
		return
	}

	if _, err := a.Dispatcher.Enqueue(r.Context(), domain.JobTypePipeline, video.ID); err != nil {
		a.Logger.Warn().Err(err).Int64("video_id", video.ID).Msg("api: could not enqueue pipeline task")
		msg := "Queued in DB, but the task dispatcher is unavailable. Start a worker and retry."
		if err := a.Videos.SetStatus(r.Context(), video.ID, domain.VideoStatusPending, msg); err != nil {
			a.Logger.Error().Err(err).Int64("video_id", video.ID).Msg("api: failed to record dispatch warning")
		}
		video.ErrorMessage = msg
	}

	a.json(w, http.StatusCreated, toVideoResponse(video))
}

// VideosList returns videos newest first with optional status filtering.
func (a *App) VideosList(w http.ResponseWriter, r *http.Request) {
	status := domain.VideoStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown status filter")
		return
	}
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	videos, err := a.Videos.List(r.Context(), status, offset, limit)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to list videos")
		return
	}
	items := make([]videoResponse, 0, len(videos))
	for i := range videos {
		items = append(items, toVideoResponse(&videos[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// VideosGet returns one video record.
func (a *App) VideosGet(w http.ResponseWriter, r *http.Request) {
	id, ok := a.videoID(w, r)
	if !ok {
		return
	}
	video, err := a.Videos.GetByID(r.Context(), id)
	if err != nil {
		a.videoError(w, err)
		return
	}
	a.json(w, http.StatusOK, toVideoResponse(video))
}

// VideosUpdate applies user edits to caption and hashtags.
func (a *App) VideosUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := a.videoID(w, r)
	if !ok {
		return
	}
	var req videoUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Caption != nil && len([]rune(*req.Caption)) > domain.MaxCaptionLength {
		a.error(w, http.StatusBadRequest, "bad_request", "caption exceeds 150 characters")
		return
	}
	var hashtags []string
	if req.Hashtags != nil {
		hashtags = captioner.NormalizeHashtags(req.Hashtags)
	}

	video, err := a.Videos.UpdateContent(r.Context(), id, req.Caption, hashtags)
	if err != nil {
		a.videoError(w, err)
		return
	}
	a.json(w, http.StatusOK, toVideoResponse(video))
}

// VideosDelete removes a video; its job rows cascade.
func (a *App) VideosDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := a.videoID(w, r)
	if !ok {
		return
	}
	if err := a.Videos.Delete(r.Context(), id); err != nil {
		a.videoError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"message": "Video deleted successfully"})
}

type jobResponse struct {
	ID           int64      `json:"id"`
	TaskID       string     `json:"task_id,omitempty"`
	TaskType     string     `json:"task_type"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// VideosJobs lists a video's job history in execution order.
func (a *App) VideosJobs(w http.ResponseWriter, r *http.Request) {
	id, ok := a.videoID(w, r)
	if !ok {
		return
	}
	if _, err := a.Videos.GetByID(r.Context(), id); err != nil {
		a.videoError(w, err)
		return
	}
	jobs, err := a.Jobs.ListByVideo(r.Context(), id)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to list jobs")
		return
	}
	items := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, jobResponse{
			ID:           job.ID,
			TaskID:       job.TaskID,
			TaskType:     string(job.Type),
			Status:       string(job.Status),
			StartedAt:    job.StartedAt,
			CompletedAt:  job.CompletedAt,
			ErrorMessage: job.ErrorMessage,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) videoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid video id")
		return 0, false
	}
	return id, true
}

func (a *App) videoError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "video not found")
		return
	}
	a.error(w, http.StatusInternalServerError, "internal", "unexpected error")
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return fallback
	}
	return i
}
