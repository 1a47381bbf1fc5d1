package approvers

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-procure/meridian-procure/internal/shared"
)

// Store is the read surface the service depends on. Satisfied by Repository
// and by Cache, which decorates a Repository.
type Store interface {
	Get(ctx context.Context, id int64) (Approver, error)
	GetByEmail(ctx context.Context, email string) (Approver, error)
	List(ctx context.Context, search string, limit, offset int) ([]Approver, int, error)
}

// Service resolves approver identity and approval authority.
type Service struct {
	store Store
}

// NewService constructs the approver directory service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Resolve returns the approver for id, failing when absent or inactive.
func (s *Service) Resolve(ctx context.Context, id int64) (Approver, error) {
	if id <= 0 {
		return Approver{}, fmt.Errorf("approvers: id required: %w", shared.ErrValidation)
	}
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return Approver{}, err
	}
	if !a.IsActive {
		return Approver{}, fmt.Errorf("approvers: %s: %w", a.Name, shared.ErrInactiveApprover)
	}
	return a, nil
}

// FindByContactIdentity maps an authenticated principal's email to their
// approver record, used for pending-approval queue filtering.
func (s *Service) FindByContactIdentity(ctx context.Context, identity string) (Approver, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return Approver{}, fmt.Errorf("approvers: identity required: %w", shared.ErrValidation)
	}
	return s.store.GetByEmail(ctx, identity)
}

// List returns approvers matching the search term.
func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]Approver, int, error) {
	return s.store.List(ctx, search, limit, offset)
}
