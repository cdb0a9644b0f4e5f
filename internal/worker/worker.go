// Package worker runs export jobs: dequeue, extract, render CSV, store the
// result, publish the terminal status.
package worker

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relaycrm/backend/pkg/queue"
	"github.com/relaycrm/backend/pkg/storage"
)

// Extractor yields the header and rows for one entity collection scoped to
// an organization.
type Extractor interface {
	Extract(ctx context.Context, orgID uuid.UUID, objectType string) ([]string, [][]string, error)
}

// JobQueue is the queue surface the worker drives. *queue.Queue satisfies it.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (bool, error)
	GetStatus(ctx context.Context, jobID uuid.UUID) (*queue.JobStatus, error)
	MarkProcessing(ctx context.Context, jobID uuid.UUID) error
	MarkCompleted(ctx context.Context, jobID uuid.UUID, payload, downloadURL string) error
	MarkFailed(ctx context.Context, jobID uuid.UUID, reason string) error
}

// ExportProcessor processes export jobs end to end. When s3 is nil the CSV
// is stored inline in the status entry only.
type ExportProcessor struct {
	extractor Extractor
	s3        *storage.S3
	queue     JobQueue
	logger    *zap.Logger
}

// NewExportProcessor creates an export processor.
func NewExportProcessor(extractor Extractor, s3 *storage.S3, q JobQueue, logger *zap.Logger) *ExportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportProcessor{extractor: extractor, s3: s3, queue: q, logger: logger}
}

// Process executes one export job.
func (p *ExportProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeExport {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := p.queue.MarkProcessing(ctx, payload.JobID); err != nil {
		status, sErr := p.queue.GetStatus(ctx, payload.JobID)
		if sErr != nil {
			return fmt.Errorf("load status: %w", sErr)
		}
		// A retried attempt finds the job already in processing; anything
		// else (expired or terminal) means the job is stale.
		if status == nil || status.Status != queue.StatusProcessing {
			p.logger.Warn("skipping stale export job", zap.String("job_id", payload.JobID.String()), zap.Error(err))
			return nil
		}
	}

	// Errors below leave the job in processing; the retry loop re-enqueues
	// it and only marks it failed once retries run out.
	header, rows, err := p.extractor.Extract(ctx, payload.OrganizationID, payload.ObjectType)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	csvData, err := renderCSV(header, rows)
	if err != nil {
		return fmt.Errorf("render csv: %w", err)
	}

	var downloadURL string
	if p.s3 != nil {
		key := storage.ExportKey(payload.OrganizationID.String(), payload.JobID.String())
		if _, err := p.s3.UploadExport(ctx, key, strings.NewReader(csvData)); err != nil {
			return fmt.Errorf("s3 upload: %w", err)
		}
		downloadURL, err = p.s3.PresignDownload(ctx, key)
		if err != nil {
			p.logger.Warn("presign failed, result stays inline", zap.Error(err), zap.String("job_id", payload.JobID.String()))
			downloadURL = ""
		}
	}

	if err := p.queue.MarkCompleted(ctx, payload.JobID, csvData, downloadURL); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	p.logger.Info("export completed",
		zap.String("job_id", payload.JobID.String()),
		zap.String("object_type", payload.ObjectType),
		zap.Int("rows", len(rows)))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error, fail the
// job once retries are exhausted.
func (p *ExportProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("export worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("export worker stopping")
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			exhausted, reErr := p.queue.Retry(ctx, job)
			if reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr), zap.String("job_id", job.ID))
			}
			if exhausted {
				p.failJob(ctx, job, err)
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}

// failJob publishes the terminal failed status after a job lands in the
// DLQ, carrying the last attempt's error so the poller sees the cause.
func (p *ExportProcessor) failJob(ctx context.Context, job *queue.Job, cause error) {
	var payload queue.ExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return
	}
	reason := "retries exhausted"
	if cause != nil {
		reason += ": " + cause.Error()
	}
	if err := p.queue.MarkFailed(ctx, payload.JobID, reason); err != nil {
		p.logger.Warn("mark failed after dlq", zap.Error(err), zap.String("job_id", job.ID))
	}
}

func renderCSV(header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
