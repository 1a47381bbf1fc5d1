package shared

import "errors"

// Sentinel errors shared by the document lifecycle, receiving, and approver
// packages. Services wrap these with %w and a module-prefixed message.
var (
	// ErrNotFound indicates a referenced document, line item, or approver does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState occurs when a requested transition is illegal from the current status.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrInactiveApprover indicates the approver exists but is disabled.
	ErrInactiveApprover = errors.New("approver inactive")
	// ErrConcurrency signals a transient lock or serialization failure; callers
	// may retry a bounded number of times with backoff.
	ErrConcurrency = errors.New("concurrent update conflict")
)
