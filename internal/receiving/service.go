package receiving

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/meridian-procure/meridian-procure/internal/activity"
	"github.com/meridian-procure/meridian-procure/internal/documents"
	"github.com/meridian-procure/meridian-procure/internal/shared"
)

// RepositoryPort is the transactional store surface the reconciler needs.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, documents.TxRepository) error) error
}

// Reconciler applies GRN submissions against approved purchase orders.
type Reconciler struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewReconciler constructs the receipt reconciler.
func NewReconciler(repo RepositoryPort, logger *slog.Logger) *Reconciler {
	return &Reconciler{repo: repo, logger: logger}
}

// Apply posts one GRN submission. The whole submission commits or nothing
// does: the purchase order header is locked for the duration, preconditions
// are re-validated against the locked state, every line delta is applied,
// item and header statuses are rederived, and one activity entry is written.
func (r *Reconciler) Apply(ctx context.Context, sub Submission) (documents.Document, error) {
	if sub.PONumber == "" {
		return documents.Document{}, fmt.Errorf("receiving: purchase order number required: %w", shared.ErrValidation)
	}
	if len(sub.Lines) == 0 {
		return documents.Document{}, fmt.Errorf("receiving: at least one receipt line required: %w", shared.ErrValidation)
	}

	// Merge duplicate references to the same line so repeated pairs in one
	// submission cannot double-count past the validation step.
	deltas := make(map[int64]int, len(sub.Lines))
	for _, line := range sub.Lines {
		if line.Qty < 0 {
			return documents.Document{}, fmt.Errorf("receiving: line %d: negative quantity: %w", line.LineItemID, shared.ErrValidation)
		}
		deltas[line.LineItemID] += line.Qty
	}

	var updated documents.Document
	err := r.repo.WithTx(ctx, func(ctx context.Context, tx documents.TxRepository) error {
		doc, lines, err := tx.GetByNumberForUpdate(ctx, sub.PONumber)
		if err != nil {
			return err
		}
		if !doc.Kind.SupportsReceipts() {
			return fmt.Errorf("receiving: %s is a %s, not a purchase order: %w", doc.Number, doc.Kind, shared.ErrInvalidState)
		}
		if !doc.Status.Receivable() {
			return fmt.Errorf("receiving: %s is %s, not receivable: %w", doc.Number, doc.Status, shared.ErrInvalidState)
		}

		byID := make(map[int64]*documents.LineItem, len(lines))
		for i := range lines {
			byID[lines[i].ID] = &lines[i]
		}

		received := make(map[string]int, len(deltas))
		for lineID, qty := range deltas {
			item, ok := byID[lineID]
			if !ok {
				return fmt.Errorf("receiving: line %d does not belong to %s: %w", lineID, doc.Number, shared.ErrNotFound)
			}
			next := item.QtyReceived + qty
			if next > item.QtyOrdered {
				return fmt.Errorf("receiving: line %d over-receipt %d/%d: %w", lineID, next, item.QtyOrdered, shared.ErrInvalidState)
			}
			item.QtyReceived = next
			item.Status = documents.ItemStatusFor(item.QtyReceived, item.QtyOrdered)
			if err := tx.UpdateLineReceipt(ctx, lineID, item.QtyReceived, item.Status); err != nil {
				return err
			}
			received[strconv.FormatInt(lineID, 10)] = qty
		}

		if next := documents.HeaderStatusFor(lines); next != doc.Status {
			doc.Status = next
			if err := tx.UpdateHeader(ctx, doc); err != nil {
				return err
			}
		}
		updated = doc

		details := map[string]any{"received": received, "status": string(doc.Status)}
		if sub.Notes != "" {
			details["notes"] = sub.Notes
		}
		return tx.RecordActivity(ctx, activity.Entry{
			Actor:    sub.Actor,
			Action:   activity.ActionGoodsReceipt,
			Entity:   string(doc.Kind),
			EntityID: doc.Number,
			RefID:    uuid.New(),
			Details:  details,
		})
	})
	if err != nil {
		return documents.Document{}, err
	}
	if r.logger != nil {
		r.logger.Info("goods receipt applied",
			slog.String("number", updated.Number),
			slog.String("status", string(updated.Status)),
			slog.Int("lines", len(deltas)))
	}
	return updated, nil
}
