package receiving

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-procure/meridian-procure/internal/activity"
	"github.com/meridian-procure/meridian-procure/internal/documents"
	"github.com/meridian-procure/meridian-procure/internal/shared"
)

// memoryGRNRepo serializes transactions with a mutex, matching the row lock
// taken on the document header, and restores a snapshot on error so a failed
// submission leaves no partial writes behind.
type memoryGRNRepo struct {
	mu       sync.Mutex
	docs     map[int64]documents.Document
	lines    map[int64][]documents.LineItem
	activity []activity.Entry
}

func newMemoryGRNRepo() *memoryGRNRepo {
	return &memoryGRNRepo{
		docs:  make(map[int64]documents.Document),
		lines: make(map[int64][]documents.LineItem),
	}
}

func (r *memoryGRNRepo) add(doc documents.Document, lines ...documents.LineItem) {
	r.docs[doc.ID] = doc
	r.lines[doc.ID] = lines
}

func (r *memoryGRNRepo) WithTx(ctx context.Context, fn func(context.Context, documents.TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs := make(map[int64]documents.Document, len(r.docs))
	for id, d := range r.docs {
		docs[id] = d
	}
	lines := make(map[int64][]documents.LineItem, len(r.lines))
	for id, ls := range r.lines {
		lines[id] = append([]documents.LineItem(nil), ls...)
	}
	act := append([]activity.Entry(nil), r.activity...)

	if err := fn(ctx, &memoryGRNTx{repo: r}); err != nil {
		r.docs = docs
		r.lines = lines
		r.activity = act
		return err
	}
	return nil
}

type memoryGRNTx struct {
	repo *memoryGRNRepo
}

func (tx *memoryGRNTx) NextNumber(ctx context.Context, kind documents.Kind) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (tx *memoryGRNTx) InsertDocument(ctx context.Context, doc documents.Document) (int64, error) {
	return 0, fmt.Errorf("not implemented")
}

func (tx *memoryGRNTx) InsertLine(ctx context.Context, line documents.LineItem) (int64, error) {
	return 0, fmt.Errorf("not implemented")
}

func (tx *memoryGRNTx) UpdateHeader(ctx context.Context, doc documents.Document) error {
	if _, ok := tx.repo.docs[doc.ID]; !ok {
		return fmt.Errorf("documents: %w", shared.ErrNotFound)
	}
	tx.repo.docs[doc.ID] = doc
	return nil
}

func (tx *memoryGRNTx) UpdateLineReceipt(ctx context.Context, lineID int64, qtyReceived int, status documents.ItemStatus) error {
	for docID, lines := range tx.repo.lines {
		for i := range lines {
			if lines[i].ID == lineID {
				lines[i].QtyReceived = qtyReceived
				lines[i].Status = status
				tx.repo.lines[docID] = lines
				return nil
			}
		}
	}
	return fmt.Errorf("documents: line %d: %w", lineID, shared.ErrNotFound)
}

func (tx *memoryGRNTx) DeleteLines(ctx context.Context, documentID int64) error {
	return fmt.Errorf("not implemented")
}

func (tx *memoryGRNTx) DeleteDocument(ctx context.Context, id int64) error {
	return fmt.Errorf("not implemented")
}

func (tx *memoryGRNTx) GetForUpdate(ctx context.Context, id int64) (documents.Document, []documents.LineItem, error) {
	doc, ok := tx.repo.docs[id]
	if !ok {
		return documents.Document{}, nil, fmt.Errorf("documents: %w", shared.ErrNotFound)
	}
	return doc, append([]documents.LineItem(nil), tx.repo.lines[id]...), nil
}

func (tx *memoryGRNTx) GetByNumberForUpdate(ctx context.Context, number string) (documents.Document, []documents.LineItem, error) {
	for id, doc := range tx.repo.docs {
		if doc.Number == number {
			return doc, append([]documents.LineItem(nil), tx.repo.lines[id]...), nil
		}
	}
	return documents.Document{}, nil, fmt.Errorf("documents: %w", shared.ErrNotFound)
}

func (tx *memoryGRNTx) RecordActivity(ctx context.Context, entry activity.Entry) error {
	tx.repo.activity = append(tx.repo.activity, entry)
	return nil
}

func approvedPO(repo *memoryGRNRepo) documents.Document {
	doc := documents.Document{
		ID:         1,
		Kind:       documents.KindPurchaseOrder,
		Number:     "PO-00007",
		Status:     documents.StatusApproved,
		ApproverID: 1,
		GrandTotal: 150,
	}
	repo.add(doc,
		documents.LineItem{ID: 10, DocumentID: 1, Description: "widget", QtyOrdered: 10, Status: documents.ItemPending, Position: 1},
		documents.LineItem{ID: 11, DocumentID: 1, Description: "gadget", QtyOrdered: 5, Status: documents.ItemPending, Position: 2},
	)
	return doc
}

func TestApplyPartialThenComplete(t *testing.T) {
	repo := newMemoryGRNRepo()
	approvedPO(repo)
	rec := NewReconciler(repo, nil)
	ctx := context.Background()

	doc, err := rec.Apply(ctx, Submission{
		PONumber: "PO-00007",
		Actor:    "warehouse",
		Lines: []ReceiptLine{
			{LineItemID: 10, Qty: 4},
			{LineItemID: 11, Qty: 5},
		},
	})
	require.NoError(t, err)
	require.Equal(t, documents.StatusPartiallyReceived, doc.Status)

	lines := repo.lines[1]
	require.Equal(t, 4, lines[0].QtyReceived)
	require.Equal(t, documents.ItemPartiallyReceived, lines[0].Status)
	require.Equal(t, 5, lines[1].QtyReceived)
	require.Equal(t, documents.ItemFullyReceived, lines[1].Status)

	doc, err = rec.Apply(ctx, Submission{
		PONumber: "PO-00007",
		Actor:    "warehouse",
		Lines:    []ReceiptLine{{LineItemID: 10, Qty: 6}},
	})
	require.NoError(t, err)
	require.Equal(t, documents.StatusCompleted, doc.Status)

	// Completed orders accept no further receipts.
	_, err = rec.Apply(ctx, Submission{
		PONumber: "PO-00007",
		Actor:    "warehouse",
		Lines:    []ReceiptLine{{LineItemID: 10, Qty: 1}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestApplyOverReceiptRollsBackEverything(t *testing.T) {
	repo := newMemoryGRNRepo()
	approvedPO(repo)
	rec := NewReconciler(repo, nil)

	_, err := rec.Apply(context.Background(), Submission{
		PONumber: "PO-00007",
		Actor:    "warehouse",
		Lines: []ReceiptLine{
			{LineItemID: 11, Qty: 5},
			{LineItemID: 10, Qty: 11},
		},
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	// Nothing from the failed submission may stick, valid lines included.
	for _, line := range repo.lines[1] {
		require.Zero(t, line.QtyReceived)
		require.Equal(t, documents.ItemPending, line.Status)
	}
	require.Equal(t, documents.StatusApproved, repo.docs[1].Status)
	require.Empty(t, repo.activity)
}

func TestApplyDuplicateLinesMerged(t *testing.T) {
	repo := newMemoryGRNRepo()
	approvedPO(repo)
	rec := NewReconciler(repo, nil)

	// 6 + 5 for a 10-ordered line must fail as one 11-unit delta.
	_, err := rec.Apply(context.Background(), Submission{
		PONumber: "PO-00007",
		Actor:    "warehouse",
		Lines: []ReceiptLine{
			{LineItemID: 10, Qty: 6},
			{LineItemID: 10, Qty: 5},
		},
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	doc, err := rec.Apply(context.Background(), Submission{
		PONumber: "PO-00007",
		Actor:    "warehouse",
		Lines: []ReceiptLine{
			{LineItemID: 10, Qty: 6},
			{LineItemID: 10, Qty: 4},
		},
	})
	require.NoError(t, err)
	require.Equal(t, documents.StatusPartiallyReceived, doc.Status)
	require.Equal(t, 10, repo.lines[1][0].QtyReceived)
}

func TestApplyUnknownLineRejected(t *testing.T) {
	repo := newMemoryGRNRepo()
	approvedPO(repo)
	rec := NewReconciler(repo, nil)

	_, err := rec.Apply(context.Background(), Submission{
		PONumber: "PO-00007",
		Actor:    "warehouse",
		Lines: []ReceiptLine{
			{LineItemID: 10, Qty: 1},
			{LineItemID: 99, Qty: 1},
		},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Zero(t, repo.lines[1][0].QtyReceived)
}

func TestApplyRequiresApprovedPurchaseOrder(t *testing.T) {
	repo := newMemoryGRNRepo()
	repo.add(documents.Document{
		ID: 2, Kind: documents.KindPurchaseOrder, Number: "PO-00008", Status: documents.StatusDraft,
	}, documents.LineItem{ID: 20, DocumentID: 2, Description: "widget", QtyOrdered: 3, Status: documents.ItemPending})
	repo.add(documents.Document{
		ID: 3, Kind: documents.KindRequisition, Number: "REQ-00001", Status: documents.StatusApproved, ApproverID: 1,
	}, documents.LineItem{ID: 30, DocumentID: 3, Description: "desk", QtyOrdered: 2, Status: documents.ItemPending})
	rec := NewReconciler(repo, nil)
	ctx := context.Background()

	_, err := rec.Apply(ctx, Submission{
		PONumber: "PO-00008",
		Actor:    "warehouse",
		Lines:    []ReceiptLine{{LineItemID: 20, Qty: 1}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	// Requisitions never take receipts, even when approved.
	_, err = rec.Apply(ctx, Submission{
		PONumber: "REQ-00001",
		Actor:    "warehouse",
		Lines:    []ReceiptLine{{LineItemID: 30, Qty: 1}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestApplyValidation(t *testing.T) {
	repo := newMemoryGRNRepo()
	approvedPO(repo)
	rec := NewReconciler(repo, nil)
	ctx := context.Background()

	_, err := rec.Apply(ctx, Submission{Actor: "warehouse", Lines: []ReceiptLine{{LineItemID: 10, Qty: 1}}})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = rec.Apply(ctx, Submission{PONumber: "PO-00007", Actor: "warehouse"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = rec.Apply(ctx, Submission{
		PONumber: "PO-00007",
		Actor:    "warehouse",
		Lines:    []ReceiptLine{{LineItemID: 10, Qty: -2}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = rec.Apply(ctx, Submission{
		PONumber: "PO-99999",
		Actor:    "warehouse",
		Lines:    []ReceiptLine{{LineItemID: 10, Qty: 1}},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApplyZeroQuantityLineIsNoop(t *testing.T) {
	repo := newMemoryGRNRepo()
	approvedPO(repo)
	rec := NewReconciler(repo, nil)

	doc, err := rec.Apply(context.Background(), Submission{
		PONumber: "PO-00007",
		Actor:    "warehouse",
		Lines:    []ReceiptLine{{LineItemID: 10, Qty: 0}},
	})
	require.NoError(t, err)
	require.Equal(t, documents.StatusApproved, doc.Status)
	require.Zero(t, repo.lines[1][0].QtyReceived)
}

func TestApplyConcurrentSubmissions(t *testing.T) {
	repo := newMemoryGRNRepo()
	approvedPO(repo)
	rec := NewReconciler(repo, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = rec.Apply(ctx, Submission{
			PONumber: "PO-00007", Actor: "dock-a",
			Lines: []ReceiptLine{{LineItemID: 10, Qty: 10}},
		})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = rec.Apply(ctx, Submission{
			PONumber: "PO-00007", Actor: "dock-b",
			Lines: []ReceiptLine{{LineItemID: 11, Qty: 5}},
		})
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Equal(t, documents.StatusCompleted, repo.docs[1].Status)
	require.Len(t, repo.activity, 2)
}

func TestApplyRecordsActivity(t *testing.T) {
	repo := newMemoryGRNRepo()
	approvedPO(repo)
	rec := NewReconciler(repo, nil)

	_, err := rec.Apply(context.Background(), Submission{
		PONumber: "PO-00007",
		Actor:    "warehouse",
		Notes:    "dock 3, pallet damaged",
		Lines:    []ReceiptLine{{LineItemID: 10, Qty: 4}},
	})
	require.NoError(t, err)

	require.Len(t, repo.activity, 1)
	entry := repo.activity[0]
	require.Equal(t, activity.ActionGoodsReceipt, entry.Action)
	require.Equal(t, "warehouse", entry.Actor)
	require.Equal(t, "PO-00007", entry.EntityID)
	require.Equal(t, "dock 3, pallet damaged", entry.Details["notes"])
}
