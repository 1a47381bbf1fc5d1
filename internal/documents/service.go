package documents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-procure/meridian-procure/internal/activity"
	"github.com/meridian-procure/meridian-procure/internal/approvers"
	"github.com/meridian-procure/meridian-procure/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Document, []LineItem, error)
	GetByNumber(ctx context.Context, number string) (Document, []LineItem, error)
	List(ctx context.Context, filters ListFilters, limit, offset int) ([]Document, int, error)
	ListPendingForApprover(ctx context.Context, approverID int64) ([]Document, error)
}

// ApproverPort resolves approver identity for submissions and approvals.
type ApproverPort interface {
	Resolve(ctx context.Context, id int64) (approvers.Approver, error)
}

// Service enforces the shared document lifecycle state machine.
type Service struct {
	repo      RepositoryPort
	approvers ApproverPort
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the lifecycle service.
func NewService(repo RepositoryPort, directory ApproverPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, approvers: directory, logger: logger, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// LineInput describes one requested line item.
type LineInput struct {
	Description string
	Qty         int
	UnitPrice   float64
}

// CreateInput describes a document creation payload.
type CreateInput struct {
	Kind      Kind
	Supplier  string
	Reference string
	Notes     string
	Lines     []LineInput
}

// UpdateInput replaces header fields and the entire line collection.
type UpdateInput struct {
	Supplier   string
	Reference  string
	Notes      string
	ApproverID int64
	Lines      []LineInput
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return fmt.Errorf("documents: at least one line item required: %w", shared.ErrValidation)
	}
	for i, line := range lines {
		if strings.TrimSpace(line.Description) == "" {
			return fmt.Errorf("documents: line %d: description required: %w", i+1, shared.ErrValidation)
		}
		if line.Qty <= 0 {
			return fmt.Errorf("documents: line %d: quantity must be positive: %w", i+1, shared.ErrValidation)
		}
		if line.UnitPrice < 0 {
			return fmt.Errorf("documents: line %d: unit price must not be negative: %w", i+1, shared.ErrValidation)
		}
	}
	return nil
}

func grandTotal(lines []LineInput) float64 {
	var total float64
	for _, line := range lines {
		total += float64(line.Qty) * line.UnitPrice
	}
	return total
}

// Create persists a new Draft document with the next sequential number for
// its kind.
func (s *Service) Create(ctx context.Context, input CreateInput, actor string) (Document, error) {
	if !input.Kind.Valid() {
		return Document{}, fmt.Errorf("documents: unknown kind %q: %w", input.Kind, shared.ErrValidation)
	}
	if err := validateLines(input.Lines); err != nil {
		return Document{}, err
	}

	var created Document
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, input.Kind)
		if err != nil {
			return err
		}
		doc := Document{
			Kind:       input.Kind,
			Number:     number,
			Status:     StatusDraft,
			Supplier:   input.Supplier,
			Reference:  input.Reference,
			Notes:      input.Notes,
			GrandTotal: grandTotal(input.Lines),
		}
		id, err := tx.InsertDocument(ctx, doc)
		if err != nil {
			return err
		}
		doc.ID = id
		if err := insertLines(ctx, tx, id, input.Lines); err != nil {
			return err
		}
		created = doc
		return tx.RecordActivity(ctx, activity.Entry{
			Actor:    actor,
			Action:   activity.ActionDocumentCreate,
			Entity:   string(doc.Kind),
			EntityID: doc.Number,
			RefID:    documentRef(doc.Number),
			Details:  map[string]any{"lines": len(input.Lines), "total": doc.GrandTotal},
		})
	})
	if err != nil {
		return Document{}, err
	}
	return created, nil
}

func insertLines(ctx context.Context, tx TxRepository, documentID int64, lines []LineInput) error {
	for i, line := range lines {
		_, err := tx.InsertLine(ctx, LineItem{
			DocumentID:  documentID,
			Description: line.Description,
			QtyOrdered:  line.Qty,
			QtyReceived: 0,
			UnitPrice:   line.UnitPrice,
			Status:      ItemPending,
			Position:    i + 1,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// documentRef derives a stable activity reference id from the number.
func documentRef(number string) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte("DOC:"+number))
}

// Submit sends a Draft or Rejected document for approval. When approverID
// resolves to an active approver the status becomes PendingApproval;
// without one the document stays in (or returns to) Draft.
func (s *Service) Submit(ctx context.Context, id int64, approverID int64, actor string) (Document, error) {
	var updated Document
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, lines, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !doc.Status.Submittable() {
			return fmt.Errorf("documents: submit %s from %s: %w", doc.Number, doc.Status, shared.ErrInvalidState)
		}
		if len(lines) == 0 {
			return fmt.Errorf("documents: submit %s without line items: %w", doc.Number, shared.ErrValidation)
		}

		doc.ApprovalDate = time.Time{}
		if approverID != 0 {
			approver, err := s.approvers.Resolve(ctx, approverID)
			if err != nil {
				return err
			}
			doc.ApproverID = approver.ID
			doc.Status = StatusPendingApproval
		} else {
			doc.ApproverID = 0
			doc.Status = StatusDraft
		}
		if err := tx.UpdateHeader(ctx, doc); err != nil {
			return err
		}
		updated = doc
		return tx.RecordActivity(ctx, activity.Entry{
			Actor:    actor,
			Action:   activity.ActionDocumentSubmit,
			Entity:   string(doc.Kind),
			EntityID: doc.Number,
			RefID:    documentRef(doc.Number),
			Details:  map[string]any{"status": string(doc.Status), "approver_id": doc.ApproverID},
		})
	})
	if err != nil {
		return Document{}, err
	}
	return updated, nil
}

// Approve marks a PendingApproval document as Approved and stamps the
// approval date. A second approve call fails rather than silently succeeding.
func (s *Service) Approve(ctx context.Context, id int64, actor string) (Document, error) {
	var updated Document
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, _, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc.Status != StatusPendingApproval {
			return fmt.Errorf("documents: approve %s from %s: %w", doc.Number, doc.Status, shared.ErrInvalidState)
		}
		if doc.ApproverID == 0 {
			return fmt.Errorf("documents: approve %s without assigned approver: %w", doc.Number, shared.ErrInvalidState)
		}

		approver, err := s.approvers.Resolve(ctx, doc.ApproverID)
		if err != nil {
			return err
		}
		// Advisory only, pending product decision on hard enforcement.
		if s.logger != nil && approver.ApprovalLimit > 0 && doc.GrandTotal > approver.ApprovalLimit {
			s.logger.Warn("document total exceeds approver limit",
				slog.String("number", doc.Number),
				slog.Float64("total", doc.GrandTotal),
				slog.Float64("limit", approver.ApprovalLimit))
		}

		doc.Status = StatusApproved
		doc.ApprovalDate = s.now()
		if err := tx.UpdateHeader(ctx, doc); err != nil {
			return err
		}
		updated = doc
		return tx.RecordActivity(ctx, activity.Entry{
			Actor:    actor,
			Action:   activity.ActionDocumentApprove,
			Entity:   string(doc.Kind),
			EntityID: doc.Number,
			RefID:    documentRef(doc.Number),
			Details:  map[string]any{"approver_id": doc.ApproverID, "total": doc.GrandTotal},
		})
	})
	if err != nil {
		return Document{}, err
	}
	return updated, nil
}

// Reject moves a PendingApproval document to Rejected and clears the approval
// date. The reason lives in the activity trail, which is the authoritative
// record for rejection reasons.
func (s *Service) Reject(ctx context.Context, id int64, reason, actor string) (Document, error) {
	var updated Document
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, _, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc.Status != StatusPendingApproval {
			return fmt.Errorf("documents: reject %s from %s: %w", doc.Number, doc.Status, shared.ErrInvalidState)
		}

		doc.Status = StatusRejected
		doc.ApprovalDate = time.Time{}
		if err := tx.UpdateHeader(ctx, doc); err != nil {
			return err
		}
		updated = doc
		return tx.RecordActivity(ctx, activity.Entry{
			Actor:    actor,
			Action:   activity.ActionDocumentReject,
			Entity:   string(doc.Kind),
			EntityID: doc.Number,
			RefID:    documentRef(doc.Number),
			Details:  map[string]any{"reason": reason},
		})
	})
	if err != nil {
		return Document{}, err
	}
	return updated, nil
}

// Update replaces header fields and the whole line collection, then
// recomputes status per the submit rule: a resolvable approver puts the
// document in PendingApproval, removing the approver reverts it to Draft.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput, actor string) (Document, error) {
	if err := validateLines(input.Lines); err != nil {
		return Document{}, err
	}

	var updated Document
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, _, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !doc.Status.Editable() {
			return fmt.Errorf("documents: update %s in %s: %w", doc.Number, doc.Status, shared.ErrInvalidState)
		}

		doc.Supplier = input.Supplier
		doc.Reference = input.Reference
		doc.Notes = input.Notes
		doc.GrandTotal = grandTotal(input.Lines)
		doc.ApprovalDate = time.Time{}
		if input.ApproverID != 0 {
			approver, err := s.approvers.Resolve(ctx, input.ApproverID)
			if err != nil {
				return err
			}
			doc.ApproverID = approver.ID
			doc.Status = StatusPendingApproval
		} else {
			doc.ApproverID = 0
			doc.Status = StatusDraft
		}

		if err := tx.DeleteLines(ctx, doc.ID); err != nil {
			return err
		}
		if err := insertLines(ctx, tx, doc.ID, input.Lines); err != nil {
			return err
		}
		if err := tx.UpdateHeader(ctx, doc); err != nil {
			return err
		}
		updated = doc
		return tx.RecordActivity(ctx, activity.Entry{
			Actor:    actor,
			Action:   activity.ActionDocumentUpdate,
			Entity:   string(doc.Kind),
			EntityID: doc.Number,
			RefID:    documentRef(doc.Number),
			Details:  map[string]any{"status": string(doc.Status), "lines": len(input.Lines), "total": doc.GrandTotal},
		})
	})
	if err != nil {
		return Document{}, err
	}
	return updated, nil
}

// Delete removes a Draft or Rejected document and its lines. The document
// number is never reassigned.
func (s *Service) Delete(ctx context.Context, id int64, actor string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, _, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !doc.Status.Deletable() {
			return fmt.Errorf("documents: delete %s in %s: %w", doc.Number, doc.Status, shared.ErrInvalidState)
		}
		if err := tx.DeleteLines(ctx, doc.ID); err != nil {
			return err
		}
		if err := tx.DeleteDocument(ctx, doc.ID); err != nil {
			return err
		}
		return tx.RecordActivity(ctx, activity.Entry{
			Actor:    actor,
			Action:   activity.ActionDocumentDelete,
			Entity:   string(doc.Kind),
			EntityID: doc.Number,
			RefID:    documentRef(doc.Number),
			Details:  map[string]any{"status": string(doc.Status)},
		})
	})
}

// Get returns one document with lines.
func (s *Service) Get(ctx context.Context, id int64) (Document, []LineItem, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber returns one document with lines by its number.
func (s *Service) GetByNumber(ctx context.Context, number string) (Document, []LineItem, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns documents matching filters with the unpaged total.
func (s *Service) List(ctx context.Context, filters ListFilters, limit, offset int) ([]Document, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, filters, limit, offset)
}

// PendingForApprover lists documents awaiting the given approver.
func (s *Service) PendingForApprover(ctx context.Context, approverID int64) ([]Document, error) {
	if approverID <= 0 {
		return nil, fmt.Errorf("documents: approver id required: %w", shared.ErrValidation)
	}
	return s.repo.ListPendingForApprover(ctx, approverID)
}
