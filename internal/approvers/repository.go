package approvers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-procure/meridian-procure/internal/shared"
)

// Repository provides approver persistence.
type Repository interface {
	List(ctx context.Context, search string, limit, offset int) ([]Approver, int, error)
	Get(ctx context.Context, id int64) (Approver, error)
	GetByEmail(ctx context.Context, email string) (Approver, error)
	Create(ctx context.Context, a Approver) (Approver, error)
	Update(ctx context.Context, id int64, a Approver) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed approver repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const approverColumns = `id, name, email, approval_limit, is_active, created_at, updated_at`

func scanApprover(row pgx.Row) (Approver, error) {
	var a Approver
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.ApprovalLimit, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Approver{}, fmt.Errorf("approvers: %w", shared.ErrNotFound)
		}
		return Approver{}, err
	}
	return a, nil
}

func (r *repository) List(ctx context.Context, search string, limit, offset int) ([]Approver, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0
	if search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR email ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM approvers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + approverColumns + ` FROM approvers` + where + ` ORDER BY name ASC`
	if limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Approver
	for rows.Next() {
		var a Approver
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.ApprovalLimit, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, a)
	}
	return list, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Approver, error) {
	return scanApprover(r.db.QueryRow(ctx, `SELECT `+approverColumns+` FROM approvers WHERE id = $1`, id))
}

func (r *repository) GetByEmail(ctx context.Context, email string) (Approver, error) {
	return scanApprover(r.db.QueryRow(ctx, `SELECT `+approverColumns+` FROM approvers WHERE LOWER(email) = LOWER($1)`, email))
}

func (r *repository) Create(ctx context.Context, a Approver) (Approver, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO approvers (name, email, approval_limit, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		a.Name, a.Email, a.ApprovalLimit, a.IsActive, now, now).Scan(&a.ID)
	if err != nil {
		return Approver{}, err
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	return a, nil
}

func (r *repository) Update(ctx context.Context, id int64, a Approver) error {
	tag, err := r.db.Exec(ctx, `UPDATE approvers SET name = $1, email = $2, approval_limit = $3, is_active = $4, updated_at = $5 WHERE id = $6`,
		a.Name, a.Email, a.ApprovalLimit, a.IsActive, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("approvers: %w", shared.ErrNotFound)
	}
	return nil
}
