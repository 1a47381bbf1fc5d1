package activity

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one append-only record of a state-changing operation.
// Entries are written in the same transaction as the change they document
// and are never mutated or deleted outside retention pruning.
type Entry struct {
	ID         int64
	Actor      string
	Action     string
	Entity     string
	EntityID   string
	RefID      uuid.UUID
	Details    map[string]any
	OccurredAt time.Time
}

// Actions recorded by the lifecycle engine and receipt reconciler.
const (
	ActionDocumentCreate  = "DOC_CREATE"
	ActionDocumentSubmit  = "DOC_SUBMIT"
	ActionDocumentApprove = "DOC_APPROVE"
	ActionDocumentReject  = "DOC_REJECT"
	ActionDocumentUpdate  = "DOC_UPDATE"
	ActionDocumentDelete  = "DOC_DELETE"
	ActionGoodsReceipt    = "GRN_APPLY"
)

// TimelineFilters narrows timeline queries.
type TimelineFilters struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// PagingInfo describes the window returned by a timeline query.
type PagingInfo struct {
	Page     int
	PageSize int
	Total    int
}

// Result wraps timeline rows with paging information.
type Result struct {
	Rows   []Entry
	Paging PagingInfo
}
