package domain

import "context"

// VideoRepository defines persistence for video work items.
type VideoRepository interface {
	Create(ctx context.Context, video *Video) error
	GetByID(ctx context.Context, id int64) (*Video, error)
	List(ctx context.Context, status VideoStatus, offset, limit int) ([]Video, error)
	// Update persists the pipeline-managed output fields plus caption and
	// hashtags, bumping updated_at.
	Update(ctx context.Context, video *Video) error
	// SetStatus writes status and error message in one statement so the
	// pair can never be observed out of sync.
	SetStatus(ctx context.Context, id int64, status VideoStatus, errMsg string) error
	UpdateContent(ctx context.Context, id int64, caption *string, hashtags []string) (*Video, error)
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context) (map[VideoStatus]int64, error)
}

// JobRepository defines persistence for job bookkeeping rows.
type JobRepository interface {
	// Start inserts a started job with started_at set to now.
	Start(ctx context.Context, videoID int64, jobType JobType, taskID string) (*Job, error)
	// CreatePending inserts a placeholder row the orchestrator can later
	// resume; used by the dispatcher at enqueue time.
	CreatePending(ctx context.Context, videoID int64, jobType JobType, taskID string) (*Job, error)
	// ResumePending transitions the newest matching pending placeholder to
	// started and returns it, or ErrNotFound when no placeholder matches.
	ResumePending(ctx context.Context, videoID int64, jobType JobType, taskID string) (*Job, error)
	Complete(ctx context.Context, jobID int64) error
	Fail(ctx context.Context, jobID int64, errMsg string) error
	ListByVideo(ctx context.Context, videoID int64) ([]Job, error)
}

// TokenRepository persists TikTok OAuth credentials.
type TokenRepository interface {
	Latest(ctx context.Context) (*TikTokToken, error)
	Save(ctx context.Context, token *TikTokToken) (*TikTokToken, error)
	Update(ctx context.Context, token *TikTokToken) error
}

// Dispatcher enqueues one pipeline invocation and returns the correlation
// id the broker will deliver alongside it.
type Dispatcher interface {
	Enqueue(ctx context.Context, jobType JobType, videoID int64) (string, error)
}
