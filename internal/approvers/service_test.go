package approvers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-procure/meridian-procure/internal/shared"
)

type memoryApproverRepo struct {
	byID   map[int64]Approver
	gets   int
	emails int
}

func newMemoryApproverRepo(approvers ...Approver) *memoryApproverRepo {
	r := &memoryApproverRepo{byID: make(map[int64]Approver)}
	for _, a := range approvers {
		r.byID[a.ID] = a
	}
	return r
}

func (r *memoryApproverRepo) Get(ctx context.Context, id int64) (Approver, error) {
	r.gets++
	a, ok := r.byID[id]
	if !ok {
		return Approver{}, fmt.Errorf("approvers: %w", shared.ErrNotFound)
	}
	return a, nil
}

func (r *memoryApproverRepo) GetByEmail(ctx context.Context, email string) (Approver, error) {
	r.emails++
	for _, a := range r.byID {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return Approver{}, fmt.Errorf("approvers: %w", shared.ErrNotFound)
}

func (r *memoryApproverRepo) List(ctx context.Context, search string, limit, offset int) ([]Approver, int, error) {
	var out []Approver
	for _, a := range r.byID {
		if search == "" || strings.Contains(strings.ToLower(a.Name), strings.ToLower(search)) {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (r *memoryApproverRepo) Create(ctx context.Context, a Approver) (Approver, error) {
	r.byID[a.ID] = a
	return a, nil
}

func (r *memoryApproverRepo) Update(ctx context.Context, id int64, a Approver) error {
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("approvers: %w", shared.ErrNotFound)
	}
	a.ID = id
	r.byID[id] = a
	return nil
}

func TestResolve(t *testing.T) {
	repo := newMemoryApproverRepo(
		Approver{ID: 1, Name: "Dana", Email: "dana@example.com", ApprovalLimit: 50000, IsActive: true},
		Approver{ID: 2, Name: "Former", Email: "former@example.com", IsActive: false},
	)
	svc := NewService(repo)
	ctx := context.Background()

	a, err := svc.Resolve(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Dana", a.Name)

	_, err = svc.Resolve(ctx, 2)
	require.ErrorIs(t, err, shared.ErrInactiveApprover)

	_, err = svc.Resolve(ctx, 404)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Resolve(ctx, 0)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Resolve(ctx, -3)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestFindByContactIdentity(t *testing.T) {
	repo := newMemoryApproverRepo(
		Approver{ID: 1, Name: "Dana", Email: "dana@example.com", IsActive: true},
	)
	svc := NewService(repo)
	ctx := context.Background()

	a, err := svc.FindByContactIdentity(ctx, "dana@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(1), a.ID)

	a, err = svc.FindByContactIdentity(ctx, "  dana@example.com  ")
	require.NoError(t, err)
	require.Equal(t, int64(1), a.ID)

	_, err = svc.FindByContactIdentity(ctx, "")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.FindByContactIdentity(ctx, "unknown@example.com")
	require.ErrorIs(t, err, shared.ErrNotFound)
}
