package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned by a JobStore for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// ErrQueueClosed is returned when publishing to a stopped queue.
var ErrQueueClosed = errors.New("queue is closed")

// DefaultMaxRetries is applied to jobs published without MaxRetries.
const DefaultMaxRetries = 3

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeAnalyzeUser runs a full recommendation and insight analysis.
	JobTypeAnalyzeUser JobType = "analyze_user"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed and will not be retried.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is waiting for a retry.
	JobStatusRetrying JobStatus = "retrying"
)

// AnalyzeUserJob asks a worker to analyze one user's finances.
type AnalyzeUserJob struct {
	JobID  string    `json:"job_id"`
	UserID string    `json:"user_id"`
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds the last handler error, cleared on success.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *AnalyzeUserJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *AnalyzeUserJob) GetType() JobType {
	return JobTypeAnalyzeUser
}

// GetStatus implements the Job interface.
func (j *AnalyzeUserJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher enqueues jobs.
type Publisher interface {
	// PublishAnalyzeUser fills in JobID, Status, CreatedAt and MaxRetries
	// when unset and enqueues a copy of job.
	PublishAnalyzeUser(ctx context.Context, job *AnalyzeUserJob) error

	Close() error
}

// Consumer runs a handler over queued jobs.
type Consumer interface {
	// Start launches the workers and returns immediately.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A non-nil error schedules a retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state.
type JobStore interface {
	SaveJob(ctx context.Context, job *AnalyzeUserJob) error
	GetJob(ctx context.Context, jobID string) (*AnalyzeUserJob, error)
	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*AnalyzeUserJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs. Zero fields match
// everything.
type JobFilter struct {
	UserID string
	Status JobStatus
	Limit  int
	Offset int
}
