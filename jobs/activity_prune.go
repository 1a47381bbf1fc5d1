package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-procure/meridian-procure/internal/activity"
)

// ActivityPruneJob deletes activity entries older than the retention window.
type ActivityPruneJob struct {
	service   *activity.Service
	retention time.Duration
	logger    *slog.Logger
}

// NewActivityPruneJob constructs the prune job.
func NewActivityPruneJob(service *activity.Service, retention time.Duration, logger *slog.Logger) *ActivityPruneJob {
	return &ActivityPruneJob{service: service, retention: retention, logger: logger}
}

// Handler processes TaskActivityPrune tasks.
func (j *ActivityPruneJob) Handler(ctx context.Context, t *asynq.Task) error {
	var payload ActivityPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.DryRun {
		j.logger.Info("activity prune dry run", slog.Duration("retention", j.retention))
		return nil
	}
	removed, err := j.service.Prune(ctx, j.retention)
	if err != nil {
		j.logger.Error("activity prune", slog.Any("error", err))
		return err
	}
	j.logger.Info("activity prune complete", slog.Int64("removed", removed))
	return nil
}
