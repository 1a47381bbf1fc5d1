package documents

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers document lifecycle routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/submit", h.handleSubmit)
		r.Post("/{id}/approve", h.handleApprove)
		r.Post("/{id}/reject", h.handleReject)
	})
	r.Get("/approvals/queue", h.handleApprovalQueue)
}

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
