package activity

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-procure/meridian-procure/internal/platform/httpx"
)

// Handler exposes the activity timeline.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/activity", h.handleTimeline)
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	filters := TimelineFilters{
		Actor:    q.Get("actor"),
		Action:   q.Get("action"),
		Entity:   q.Get("entity"),
		EntityID: q.Get("entity_id"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.To = t
		}
	}

	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("activity timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	rows := make([]map[string]any, 0, len(result.Rows))
	for _, e := range result.Rows {
		rows = append(rows, map[string]any{
			"id":          e.ID,
			"actor":       e.Actor,
			"action":      e.Action,
			"entity":      e.Entity,
			"entity_id":   e.EntityID,
			"details":     e.Details,
			"occurred_at": e.OccurredAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"rows":      rows,
		"page":      result.Paging.Page,
		"page_size": result.Paging.PageSize,
		"total":     result.Paging.Total,
	})
}
