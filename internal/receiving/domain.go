package receiving

// ReceiptLine is one (line item, quantity received now) pair of a GRN.
type ReceiptLine struct {
	LineItemID int64
	Qty        int
}

// Submission is a goods-received note posted against one purchase order.
// It is a command, fully consumed in a single transaction, and is not
// persisted beyond the activity trail.
type Submission struct {
	PONumber string
	Lines    []ReceiptLine
	Notes    string
	Actor    string
}
