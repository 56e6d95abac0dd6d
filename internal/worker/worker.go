package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nexlearn/backend/pkg/queue"
	"github.com/nexlearn/backend/pkg/storage"
)

// CleanupProcessor processes storage release jobs: delete orphaned objects
// (replaced or removed videos and images) from S3.
type CleanupProcessor struct {
	s3     *storage.S3
	queue  *queue.Queue
	logger *zap.Logger
}

// NewCleanupProcessor creates a storage cleanup processor.
func NewCleanupProcessor(s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *CleanupProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupProcessor{s3: s3, queue: q, logger: logger}
}

// Process executes one storage release job. Deleting an object that is
// already gone is treated as success.
func (p *CleanupProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeStorageRelease {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.StorageReleasePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.Key == "" {
		p.logger.Warn("release job with empty key", zap.String("job_id", job.ID))
		return nil
	}

	bucket := p.s3.BucketForKind(payload.Kind)
	if err := p.s3.DeleteObject(ctx, bucket, payload.Key); err != nil {
		if isNotFound(err) {
			p.logger.Info("object already gone", zap.String("key", payload.Key), zap.String("bucket", bucket))
			return nil
		}
		return fmt.Errorf("delete object %s/%s: %w", bucket, payload.Key, err)
	}

	p.logger.Info("released storage object", zap.String("key", payload.Key), zap.String("bucket", bucket))
	return nil
}

func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "NotFound")
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *CleanupProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("cleanup worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			backoff(ctx, queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			backoff(ctx, queue.RetryBackoff)
			continue
		}
	}
}

// backoff waits for d or until ctx is canceled, whichever comes first.
// Returns false when cut short by cancellation.
func backoff(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
