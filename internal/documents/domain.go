package documents

import (
	"time"
)

// Kind identifies the document variants sharing the approval lifecycle.
type Kind string

const (
	KindPurchaseOrder Kind = "PURCHASE_ORDER"
	KindRequisition   Kind = "REQUISITION"
	KindQuote         Kind = "QUOTE"
)

// Valid reports whether the kind is one of the three supported variants.
func (k Kind) Valid() bool {
	switch k {
	case KindPurchaseOrder, KindRequisition, KindQuote:
		return true
	}
	return false
}

// Prefix returns the document number prefix for the kind.
func (k Kind) Prefix() string {
	switch k {
	case KindPurchaseOrder:
		return "PO"
	case KindRequisition:
		return "REQ"
	case KindQuote:
		return "QUO"
	}
	return ""
}

// SupportsReceipts reports whether goods receipts reconcile against this kind.
// Only purchase orders carry the PartiallyReceived/Completed statuses.
func (k Kind) SupportsReceipts() bool {
	return k == KindPurchaseOrder
}

// Document lifecycle statuses.
type Status string

const (
	StatusDraft             Status = "DRAFT"
	StatusPendingApproval   Status = "PENDING_APPROVAL"
	StatusApproved          Status = "APPROVED"
	StatusRejected          Status = "REJECTED"
	StatusPartiallyReceived Status = "PARTIALLY_RECEIVED"
	StatusCompleted         Status = "COMPLETED"
)

// Line item receipt statuses.
type ItemStatus string

const (
	ItemPending           ItemStatus = "PENDING"
	ItemPartiallyReceived ItemStatus = "PARTIALLY_RECEIVED"
	ItemFullyReceived     ItemStatus = "FULLY_RECEIVED"
)

// Document is the shared header for purchase orders, requisitions and quotes.
// ApproverID zero means unassigned; a zero ApprovalDate means not approved.
type Document struct {
	ID           int64
	Kind         Kind
	Number       string
	Status       Status
	Supplier     string
	Reference    string
	Notes        string
	ApproverID   int64
	ApprovalDate time.Time
	GrandTotal   float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LineItem is a single ordered row owned by exactly one document.
type LineItem struct {
	ID          int64
	DocumentID  int64
	Description string
	QtyOrdered  int
	QtyReceived int
	UnitPrice   float64
	Status      ItemStatus
	Position    int
}

// ListFilters narrows document list queries.
type ListFilters struct {
	Kind    Kind
	Status  Status
	Search  string
	SortBy  string
	SortDir string
}
