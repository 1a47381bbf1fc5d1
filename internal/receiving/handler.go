package receiving

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-procure/meridian-procure/internal/platform/httpx"
)

// Handler exposes GRN posting over JSON.
type Handler struct {
	logger     *slog.Logger
	reconciler *Reconciler
	validate   *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, reconciler *Reconciler) *Handler {
	return &Handler{logger: logger, reconciler: reconciler, validate: validator.New()}
}

// MountRoutes registers receiving routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/purchase-orders/{number}/receipts", h.handleApply)
}

type receiptLineRequest struct {
	LineItemID int64 `json:"line_item_id" validate:"required,gt=0"`
	Qty        int   `json:"qty" validate:"gte=0"`
}

type receiptRequest struct {
	Lines []receiptLineRequest `json:"lines" validate:"required,min=1,dive"`
	Notes string               `json:"notes"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	var req receiptRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	sub := Submission{PONumber: number, Notes: req.Notes, Actor: actorFrom(r)}
	for _, line := range req.Lines {
		sub.Lines = append(sub.Lines, ReceiptLine{LineItemID: line.LineItemID, Qty: line.Qty})
	}

	doc, err := h.reconciler.Apply(r.Context(), sub)
	if err != nil {
		h.logger.Error("apply goods receipt", slog.Any("error", err), slog.String("number", number))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"number": doc.Number,
		"status": string(doc.Status),
	})
}

func actorFrom(r *http.Request) string {
	if v := r.Header.Get("X-Actor"); v != "" {
		return v
	}
	return "anonymous"
}
