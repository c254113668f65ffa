package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-books/internal/jobs"
)

// DefaultKeyRetention applies when the task payload sets no retention.
const DefaultKeyRetention = 7 * 24 * time.Hour

type keyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CleanupJob purges idempotency keys past their retention.
type CleanupJob struct {
	Keys      keyCleaner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewCleanupJob initialises the cleanup handler.
func NewCleanupJob(keys keyCleaner, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *CleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = DefaultKeyRetention
	}
	return &CleanupJob{Keys: keys, Retention: retention, Logger: logger, Metrics: metrics}
}

// Handle deletes expired keys.
func (j *CleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Keys == nil {
		return fmt.Errorf("idempotency cleanup: handler not configured: %w", asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	defer func() { err = tracker.End(err) }()

	var payload CleanupPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}
	retention := payload.OlderThan
	if retention <= 0 {
		retention = j.Retention
	}
	removed, err := j.Keys.Cleanup(ctx, retention)
	if err != nil {
		return fmt.Errorf("idempotency cleanup: %w", err)
	}
	j.Logger.Info("idempotency keys purged", slog.Int64("removed", removed), slog.Duration("retention", retention))
	return nil
}
