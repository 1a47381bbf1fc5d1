package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/meridian-procure/meridian-procure/internal/approvers"
	"github.com/meridian-procure/meridian-procure/internal/documents"
	"github.com/meridian-procure/meridian-procure/internal/shared"
)

type stubLister struct {
	docs []documents.Document
	err  error
}

func (s stubLister) ListStalePending(ctx context.Context, before time.Time) ([]documents.Document, error) {
	return s.docs, s.err
}

type stubResolver struct {
	mu       sync.Mutex
	active   map[int64]approvers.Approver
	resolved []int64
}

func (s *stubResolver) Resolve(ctx context.Context, id int64) (approvers.Approver, error) {
	s.mu.Lock()
	s.resolved = append(s.resolved, id)
	s.mu.Unlock()
	a, ok := s.active[id]
	if !ok {
		return approvers.Approver{}, fmt.Errorf("approvers: %w", shared.ErrInactiveApprover)
	}
	return a, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApprovalReminderGroupsByApprover(t *testing.T) {
	lister := stubLister{docs: []documents.Document{
		{Number: "PO-00001", Status: documents.StatusPendingApproval, ApproverID: 1},
		{Number: "PO-00002", Status: documents.StatusPendingApproval, ApproverID: 1},
		{Number: "REQ-00001", Status: documents.StatusPendingApproval, ApproverID: 2},
	}}
	resolver := &stubResolver{active: map[int64]approvers.Approver{
		1: {ID: 1, Email: "dana@example.com", IsActive: true},
		2: {ID: 2, Email: "marcus@example.com", IsActive: true},
	}}
	job := NewApprovalReminderJob(lister, resolver, 72*time.Hour, discardLogger())

	task, err := NewApprovalReminderTask(false)
	require.NoError(t, err)
	require.NoError(t, job.Handler(context.Background(), task))

	// One resolve per approver, not per document.
	require.Len(t, resolver.resolved, 2)
	require.ElementsMatch(t, []int64{1, 2}, resolver.resolved)
}

func TestApprovalReminderSkipsDeactivatedApprovers(t *testing.T) {
	lister := stubLister{docs: []documents.Document{
		{Number: "PO-00001", Status: documents.StatusPendingApproval, ApproverID: 9},
	}}
	resolver := &stubResolver{active: map[int64]approvers.Approver{}}
	job := NewApprovalReminderJob(lister, resolver, 72*time.Hour, discardLogger())

	task, err := NewApprovalReminderTask(false)
	require.NoError(t, err)
	require.NoError(t, job.Handler(context.Background(), task))
}

func TestApprovalReminderPropagatesScanError(t *testing.T) {
	lister := stubLister{err: fmt.Errorf("connection refused")}
	job := NewApprovalReminderJob(lister, &stubResolver{}, 72*time.Hour, discardLogger())

	task, err := NewApprovalReminderTask(false)
	require.NoError(t, err)
	require.Error(t, job.Handler(context.Background(), task))
}

func TestApprovalReminderMalformedPayload(t *testing.T) {
	job := NewApprovalReminderJob(stubLister{}, &stubResolver{}, 72*time.Hour, discardLogger())

	task := asynq.NewTask(TaskApprovalReminder, []byte("{not json"))
	require.ErrorIs(t, job.Handler(context.Background(), task), asynq.SkipRetry)
}
