package documents

// Pure status derivation rules, shared by the lifecycle service and the
// receipt reconciler so they can be checked without a database.

// ItemStatusFor derives a line item status from its received vs ordered
// quantities. FullyReceived iff received == ordered, Pending iff received == 0.
func ItemStatusFor(received, ordered int) ItemStatus {
	switch {
	case received <= 0:
		return ItemPending
	case received >= ordered:
		return ItemFullyReceived
	default:
		return ItemPartiallyReceived
	}
}

// HeaderStatusFor derives a purchase order header status from its line items.
// Completed when every item is fully received, PartiallyReceived when anything
// has arrived, otherwise the header stays Approved.
func HeaderStatusFor(items []LineItem) Status {
	if len(items) == 0 {
		return StatusApproved
	}
	allFull := true
	anyReceived := false
	for _, item := range items {
		if item.QtyReceived > 0 {
			anyReceived = true
		}
		if item.Status != ItemFullyReceived {
			allFull = false
		}
	}
	switch {
	case allFull:
		return StatusCompleted
	case anyReceived:
		return StatusPartiallyReceived
	default:
		return StatusApproved
	}
}

// Editable reports whether header and lines may still be replaced.
func (s Status) Editable() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusRejected:
		return true
	}
	return false
}

// Deletable reports whether the document may be removed.
func (s Status) Deletable() bool {
	return s == StatusDraft || s == StatusRejected
}

// Submittable reports whether the document may be sent for approval.
func (s Status) Submittable() bool {
	return s == StatusDraft || s == StatusRejected
}

// Receivable reports whether goods receipts may still be applied.
func (s Status) Receivable() bool {
	return s == StatusApproved || s == StatusPartiallyReceived
}

// RequiresApprover reports whether the status demands an assigned approver.
func (s Status) RequiresApprover() bool {
	switch s {
	case StatusPendingApproval, StatusApproved, StatusPartiallyReceived, StatusCompleted:
		return true
	}
	return false
}
