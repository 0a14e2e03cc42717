package domain

import "time"

// VideoStatus enumerates the lifecycle states of a repost work item.
type VideoStatus string

const (
	VideoStatusPending     VideoStatus = "pending"
	VideoStatusDownloading VideoStatus = "downloading"
	VideoStatusProcessing  VideoStatus = "processing"
	VideoStatusUploading   VideoStatus = "uploading"
	VideoStatusCompleted   VideoStatus = "completed"
	VideoStatusFailed      VideoStatus = "failed"
)

// Terminal reports whether no further pipeline transition is allowed.
func (s VideoStatus) Terminal() bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

// Valid reports whether s is a known lifecycle state.
func (s VideoStatus) Valid() bool {
	switch s {
	case VideoStatusPending, VideoStatusDownloading, VideoStatusProcessing,
		VideoStatusUploading, VideoStatusCompleted, VideoStatusFailed:
		return true
	}
	return false
}

// MaxCaptionLength bounds user-visible captions across the API and the
// caption generator.
const MaxCaptionLength = 150

// Video represents a submitted Instagram reel and its repost lifecycle.
// All pipeline-managed fields are owned exclusively by the pipeline; the
// API layer owns InstagramURL at creation and Caption/Hashtags for edits.
type Video struct {
	ID               int64
	InstagramURL     string
	InstagramMediaID string
	LocalPath        string
	StorageURL       string
	TikTokURL        string
	TikTokVideoID    string
	Caption          string
	Hashtags         []string
	Status           VideoStatus
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
