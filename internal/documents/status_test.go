package documents

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestItemStatusFor(t *testing.T) {
	cases := []struct {
		name     string
		received int
		ordered  int
		want     ItemStatus
	}{
		{"nothing received", 0, 10, ItemPending},
		{"partial", 4, 10, ItemPartiallyReceived},
		{"one short", 9, 10, ItemPartiallyReceived},
		{"exact", 10, 10, ItemFullyReceived},
		{"single unit", 1, 1, ItemFullyReceived},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ItemStatusFor(tc.received, tc.ordered))
		})
	}
}

func TestHeaderStatusFor(t *testing.T) {
	line := func(received, ordered int) LineItem {
		return LineItem{QtyOrdered: ordered, QtyReceived: received, Status: ItemStatusFor(received, ordered)}
	}

	cases := []struct {
		name  string
		lines []LineItem
		want  Status
	}{
		{"nothing received", []LineItem{line(0, 10), line(0, 5)}, StatusApproved},
		{"one line partial", []LineItem{line(4, 10), line(0, 5)}, StatusPartiallyReceived},
		{"one full one pending", []LineItem{line(10, 10), line(0, 5)}, StatusPartiallyReceived},
		{"one full one partial", []LineItem{line(10, 10), line(3, 5)}, StatusPartiallyReceived},
		{"all full", []LineItem{line(10, 10), line(5, 5)}, StatusCompleted},
		{"no lines", nil, StatusApproved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, HeaderStatusFor(tc.lines))
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	require.True(t, StatusDraft.Editable())
	require.True(t, StatusPendingApproval.Editable())
	require.True(t, StatusRejected.Editable())
	require.False(t, StatusApproved.Editable())
	require.False(t, StatusPartiallyReceived.Editable())
	require.False(t, StatusCompleted.Editable())

	require.True(t, StatusDraft.Deletable())
	require.True(t, StatusRejected.Deletable())
	require.False(t, StatusPendingApproval.Deletable())
	require.False(t, StatusApproved.Deletable())

	require.True(t, StatusDraft.Submittable())
	require.True(t, StatusRejected.Submittable())
	require.False(t, StatusPendingApproval.Submittable())
	require.False(t, StatusCompleted.Submittable())

	require.True(t, StatusApproved.Receivable())
	require.True(t, StatusPartiallyReceived.Receivable())
	require.False(t, StatusDraft.Receivable())
	require.False(t, StatusCompleted.Receivable())

	require.False(t, StatusDraft.RequiresApprover())
	require.False(t, StatusRejected.RequiresApprover())
	require.True(t, StatusPendingApproval.RequiresApprover())
	require.True(t, StatusApproved.RequiresApprover())
	require.True(t, StatusPartiallyReceived.RequiresApprover())
	require.True(t, StatusCompleted.RequiresApprover())
}

func TestKindPredicates(t *testing.T) {
	require.True(t, KindPurchaseOrder.Valid())
	require.True(t, KindRequisition.Valid())
	require.True(t, KindQuote.Valid())
	require.False(t, Kind("INVOICE").Valid())

	require.True(t, KindPurchaseOrder.SupportsReceipts())
	require.False(t, KindRequisition.SupportsReceipts())
	require.False(t, KindQuote.SupportsReceipts())
}
