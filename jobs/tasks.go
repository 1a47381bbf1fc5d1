package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskActivityPrune removes activity entries past retention.
	TaskActivityPrune = "activity:prune"
	// TaskApprovalReminder nudges approvers about stale pending documents.
	TaskApprovalReminder = "approvals:reminder"
)

// ActivityPrunePayload contains options for the prune job.
type ActivityPrunePayload struct {
	DryRun bool `json:"dry_run"`
}

// NewActivityPruneTask builds a new prune task.
func NewActivityPruneTask(dryRun bool) (*asynq.Task, error) {
	body, err := json.Marshal(ActivityPrunePayload{DryRun: dryRun})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityPrune, body, asynq.Queue(QueueDefault)), nil
}

// ApprovalReminderPayload contains options for the reminder scan.
type ApprovalReminderPayload struct {
	Force bool `json:"force"`
}

// NewApprovalReminderTask builds a new reminder task.
func NewApprovalReminderTask(force bool) (*asynq.Task, error) {
	body, err := json.Marshal(ApprovalReminderPayload{Force: force})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskApprovalReminder, body, asynq.Queue(QueueDefault)), nil
}
