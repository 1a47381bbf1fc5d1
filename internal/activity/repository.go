package activity

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the activity trail.
type Repository interface {
	Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, int, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed activity repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argNum := 0

	add := func(clause string, value any) {
		argNum++
		where += ` AND ` + clause + `$` + strconv.Itoa(argNum)
		args = append(args, value)
	}
	if filters.Actor != "" {
		add("actor = ", filters.Actor)
	}
	if filters.Action != "" {
		add("action = ", filters.Action)
	}
	if filters.Entity != "" {
		add("entity = ", filters.Entity)
	}
	if filters.EntityID != "" {
		add("entity_id = ", filters.EntityID)
	}
	if !filters.From.IsZero() {
		add("occurred_at >= ", filters.From)
	}
	if !filters.To.IsZero() {
		add("occurred_at < ", filters.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_log`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, actor, action, entity, entity_id, ref_id, details, occurred_at
FROM activity_log` + where + ` ORDER BY occurred_at DESC, id DESC LIMIT $` + strconv.Itoa(argNum+1) + ` OFFSET $` + strconv.Itoa(argNum+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var details []byte
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Entity, &e.EntityID, &e.RefID, &details, &e.OccurredAt); err != nil {
			return nil, 0, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, 0, err
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *repository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activity_log WHERE occurred_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
