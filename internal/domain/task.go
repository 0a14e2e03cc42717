package domain

import "time"

// TaskStatus enumerates dispatcher queue states.
type TaskStatus string

const (
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task is one queued pipeline invocation. Its ID doubles as the
// correlation id: a redelivered task keeps the same ID across attempts.
type Task struct {
	ID          string
	Type        JobType
	VideoID     int64
	Status      TaskStatus
	Attempts    int
	MaxAttempts int
	NextRunAt   time.Time
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
