package activity

import (
	"context"
	"fmt"
	"time"
)

// Service coordinates activity timeline reads.
type Service struct {
	repo Repository
}

// NewService constructs an activity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns activity entries with paging.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("activity: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, total, err := s.repo.Timeline(ctx, filters, pageSize, offset)
	if err != nil {
		return Result{}, fmt.Errorf("activity: timeline: %w", err)
	}
	return Result{
		Rows:   rows,
		Paging: PagingInfo{Page: page, PageSize: pageSize, Total: total},
	}, nil
}

// Prune removes entries older than the retention window and returns the count.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if s.repo == nil {
		return 0, fmt.Errorf("activity: repository not configured")
	}
	if retention <= 0 {
		return 0, nil
	}
	return s.repo.Prune(ctx, time.Now().Add(-retention))
}
