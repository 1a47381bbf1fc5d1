package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-procure/meridian-procure/internal/approvers"
	"github.com/meridian-procure/meridian-procure/internal/documents"
)

// StalePendingLister returns documents stuck in PendingApproval.
type StalePendingLister interface {
	ListStalePending(ctx context.Context, before time.Time) ([]documents.Document, error)
}

// ApproverResolver resolves approver contact details for notification.
type ApproverResolver interface {
	Resolve(ctx context.Context, id int64) (approvers.Approver, error)
}

// ApprovalReminderJob scans for documents waiting on an approver longer than
// the configured age and emits one reminder per approver.
type ApprovalReminderJob struct {
	docs      StalePendingLister
	directory ApproverResolver
	age       time.Duration
	logger    *slog.Logger
}

// NewApprovalReminderJob constructs the reminder job.
func NewApprovalReminderJob(docs StalePendingLister, directory ApproverResolver, age time.Duration, logger *slog.Logger) *ApprovalReminderJob {
	return &ApprovalReminderJob{docs: docs, directory: directory, age: age, logger: logger}
}

// Handler processes TaskApprovalReminder tasks.
func (j *ApprovalReminderJob) Handler(ctx context.Context, t *asynq.Task) error {
	var payload ApprovalReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	cutoff := time.Now().Add(-j.age)
	stale, err := j.docs.ListStalePending(ctx, cutoff)
	if err != nil {
		j.logger.Error("reminder scan", slog.Any("error", err))
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	byApprover := make(map[int64][]documents.Document)
	for _, doc := range stale {
		byApprover[doc.ApproverID] = append(byApprover[doc.ApproverID], doc)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for approverID, docs := range byApprover {
		g.Go(func() error {
			approver, err := j.directory.Resolve(ctx, approverID)
			if err != nil {
				// Skip approvers that have been deactivated since assignment.
				j.logger.Warn("reminder skip approver", slog.Int64("approver_id", approverID), slog.Any("error", err))
				return nil
			}
			numbers := make([]string, 0, len(docs))
			for _, d := range docs {
				numbers = append(numbers, d.Number)
			}
			// Email delivery lands in phase 2; the reminder trail is the log.
			j.logger.Info("approval reminder",
				slog.String("approver", approver.Email),
				slog.Int("pending", len(docs)),
				slog.Any("numbers", numbers))
			return nil
		})
	}
	return g.Wait()
}
