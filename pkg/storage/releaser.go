package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/nexlearn/backend/pkg/queue"
)

// Releaser is the fire-and-log boundary for freeing stored objects. Cleanup of
// orphaned media must never block a database mutation: Release logs failures
// and returns nothing. When a queue is configured the delete is handed to the
// background worker (with retry and DLQ); otherwise it runs inline.
type Releaser struct {
	s3     *S3
	queue  *queue.Queue
	logger *zap.Logger
}

// NewReleaser creates a storage releaser. s3 may be nil (storage disabled);
// queue may be nil (inline deletes).
func NewReleaser(s3 *S3, q *queue.Queue, logger *zap.Logger) *Releaser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Releaser{s3: s3, queue: q, logger: logger}
}

// Release frees one stored object, best-effort. Empty keys are ignored.
func (r *Releaser) Release(ctx context.Context, key, kind string) {
	if key == "" {
		return
	}
	if r.s3 == nil {
		r.logger.Warn("storage release skipped, S3 not configured", zap.String("key", key), zap.String("kind", kind))
		return
	}
	if r.queue != nil {
		err := r.queue.EnqueueStorageRelease(ctx, queue.StorageReleasePayload{Key: key, Kind: kind})
		if err == nil {
			return
		}
		r.logger.Warn("enqueue storage release failed, deleting inline", zap.Error(err), zap.String("key", key))
	}
	if err := r.s3.DeleteObject(ctx, r.s3.BucketForKind(kind), key); err != nil {
		r.logger.Warn("storage release failed", zap.Error(err), zap.String("key", key), zap.String("kind", kind))
	}
}
