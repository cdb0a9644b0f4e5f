package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueExports is the Redis list key for export jobs.
	QueueExports = "worker:exports"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second

	statusKeyPrefix = "export:status:"
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeExport JobType = "export"
)

// ExportPayload is the payload for export jobs. The job id is the only
// coupling between the request path and the worker.
type ExportPayload struct {
	JobID          uuid.UUID `json:"job_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	ObjectType     string    `json:"object_type"`
	RequestedBy    uuid.UUID `json:"requested_by"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Status is an export job lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether a job may move from its current state to
// next. Terminal states never change; re-marking them is rejected so
// polling stays idempotent.
func CanTransition(current, next Status) bool {
	if current.Terminal() {
		return false
	}
	switch next {
	case StatusProcessing:
		return current == StatusQueued
	case StatusCompleted, StatusFailed:
		return current == StatusQueued || current == StatusProcessing
	default:
		return false
	}
}

// JobStatus is the polled state of an export job, stored in Redis with its
// own TTL, independent of the durable store.
type JobStatus struct {
	JobID          uuid.UUID `json:"job_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	ObjectType     string    `json:"object_type"`
	Status         Status    `json:"status"`
	Payload        string    `json:"payload,omitempty"`      // CSV content when completed
	DownloadURL    string    `json:"download_url,omitempty"` // presigned URL when S3 is configured
	Reason         string    `json:"reason,omitempty"`       // human-readable failure reason
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Queue enqueues and dequeues export jobs and tracks their status via Redis.
type Queue struct {
	client    *redis.Client
	logger    *zap.Logger
	statusTTL time.Duration
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, statusTTL time.Duration, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	if statusTTL <= 0 {
		statusTTL = 24 * time.Hour
	}
	return &Queue{client: client, logger: logger, statusTTL: statusTTL}
}

// EnqueueExport enqueues an export job and records its queued status.
func (q *Queue) EnqueueExport(ctx context.Context, payload ExportPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        payload.JobID.String(),
		Type:      JobTypeExport,
		Payload:   body,
		Attempt:   0,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	now := time.Now()
	status := JobStatus{
		JobID:          payload.JobID,
		OrganizationID: payload.OrganizationID,
		ObjectType:     payload.ObjectType,
		Status:         StatusQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := q.writeStatus(ctx, &status); err != nil {
		return err
	}
	if err := q.client.RPush(ctx, QueueExports, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued export job",
		zap.String("job_id", job.ID),
		zap.String("object_type", payload.ObjectType))
	return nil
}

// Dequeue blocks until a job is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, 0, QueueExports).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. Returns true when the
// job was moved to the DLQ instead (retries exhausted).
func (q *Queue) Retry(ctx context.Context, job *Job) (bool, error) {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return false, err
	}
	if job.Attempt >= MaxRetries {
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return false, err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return true, nil
	}
	if err := q.client.RPush(ctx, QueueExports, raw).Err(); err != nil {
		return false, err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return false, nil
}

// GetStatus returns the stored job status, or nil if unknown or expired.
// Callers must treat an organization mismatch identically to nil.
func (q *Queue) GetStatus(ctx context.Context, jobID uuid.UUID) (*JobStatus, error) {
	raw, err := q.client.Get(ctx, statusKeyPrefix+jobID.String()).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get status: %w", err)
	}
	var status JobStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// MarkProcessing transitions a queued job to processing.
func (q *Queue) MarkProcessing(ctx context.Context, jobID uuid.UUID) error {
	return q.transition(ctx, jobID, StatusProcessing, func(s *JobStatus) {})
}

// MarkCompleted records the result payload and optional download URL.
func (q *Queue) MarkCompleted(ctx context.Context, jobID uuid.UUID, payload, downloadURL string) error {
	return q.transition(ctx, jobID, StatusCompleted, func(s *JobStatus) {
		s.Payload = payload
		s.DownloadURL = downloadURL
	})
}

// MarkFailed records a human-readable failure reason.
func (q *Queue) MarkFailed(ctx context.Context, jobID uuid.UUID, reason string) error {
	return q.transition(ctx, jobID, StatusFailed, func(s *JobStatus) {
		s.Reason = reason
	})
}

func (q *Queue) transition(ctx context.Context, jobID uuid.UUID, next Status, mutate func(*JobStatus)) error {
	status, err := q.GetStatus(ctx, jobID)
	if err != nil {
		return err
	}
	if status == nil {
		return fmt.Errorf("job %s has no status entry", jobID)
	}
	if !CanTransition(status.Status, next) {
		return fmt.Errorf("job %s cannot move from %s to %s", jobID, status.Status, next)
	}
	status.Status = next
	status.UpdatedAt = time.Now()
	mutate(status)
	return q.writeStatus(ctx, status)
}

func (q *Queue) writeStatus(ctx context.Context, status *JobStatus) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	key := statusKeyPrefix + status.JobID.String()
	if err := q.client.Set(ctx, key, raw, q.statusTTL).Err(); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}
