package handlers

import (
	"net/http"

	"repost/internal/domain"
)

// StatsSummary returns aggregate video counts by processing state.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := a.Videos.CountByStatus(r.Context())
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	a.json(w, http.StatusOK, map[string]int64{
		"total_videos": total,
		"pending":      counts[domain.VideoStatusPending],
		"downloading":  counts[domain.VideoStatusDownloading],
		"processing":   counts[domain.VideoStatusProcessing],
		"uploading":    counts[domain.VideoStatusUploading],
		"completed":    counts[domain.VideoStatusCompleted],
		"failed":       counts[domain.VideoStatusFailed],
	})
}
