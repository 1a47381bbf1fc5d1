package approvers

import "time"

// Approver is a principal authorized to approve documents. ApprovalLimit is
// the maximum monetary value they may approve; zero means unbounded. The
// limit is advisory and checked, not enforced, at approval time.
type Approver struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	ApprovalLimit float64   `json:"approval_limit"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
