package domain

import "time"

// JobType enumerates pipeline step executions plus the top-level run.
type JobType string

const (
	JobTypePipeline        JobType = "process_pipeline"
	JobTypeDownloadVideo   JobType = "download_video"
	JobTypeProcessVideo    JobType = "process_video"
	JobTypeUploadStorage   JobType = "upload_storage"
	JobTypeGenerateCaption JobType = "generate_caption"
	JobTypeUploadTikTok    JobType = "upload_tiktok"
)

// JobStatus enumerates job lifecycle states. Once a job reaches
// completed or failed it is never revisited by the same execution.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusStarted   JobStatus = "started"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job records the lifecycle of one step execution (or one whole pipeline
// run) for a video. TaskID carries the dispatcher correlation id so that
// redelivered invocations can be reconciled against placeholder rows.
type Job struct {
	ID           int64
	VideoID      int64
	TaskID       string
	Type         JobType
	Status       JobStatus
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage string
}
