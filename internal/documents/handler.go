package documents

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-procure/meridian-procure/internal/approvers"
	"github.com/meridian-procure/meridian-procure/internal/platform/httpx"
)

// DirectoryPort is the approver lookup surface the handler consumes for the
// pending-approval queue.
type DirectoryPort interface {
	FindByContactIdentity(ctx context.Context, identity string) (approvers.Approver, error)
}

// Handler exposes the document lifecycle operations over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	directory DirectoryPort
	validate  *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, directory DirectoryPort) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		directory: directory,
		validate:  validator.New(),
	}
}

type lineRequest struct {
	Description string  `json:"description" validate:"required"`
	Qty         int     `json:"qty" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

type createRequest struct {
	Kind      string        `json:"kind" validate:"required,oneof=PURCHASE_ORDER REQUISITION QUOTE"`
	Supplier  string        `json:"supplier"`
	Reference string        `json:"reference"`
	Notes     string        `json:"notes"`
	Lines     []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

type updateRequest struct {
	Supplier   string        `json:"supplier"`
	Reference  string        `json:"reference"`
	Notes      string        `json:"notes"`
	ApproverID int64         `json:"approver_id"`
	Lines      []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

type submitRequest struct {
	ApproverID int64 `json:"approver_id"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type lineResponse struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	QtyOrdered  int     `json:"qty_ordered"`
	QtyReceived int     `json:"qty_received"`
	UnitPrice   float64 `json:"unit_price"`
	Status      string  `json:"status"`
}

type documentResponse struct {
	ID           int64          `json:"id"`
	Kind         string         `json:"kind"`
	Number       string         `json:"number"`
	Status       string         `json:"status"`
	Supplier     string         `json:"supplier,omitempty"`
	Reference    string         `json:"reference,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	ApproverID   int64          `json:"approver_id,omitempty"`
	ApprovalDate *time.Time     `json:"approval_date,omitempty"`
	GrandTotal   float64        `json:"grand_total"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Lines        []lineResponse `json:"lines,omitempty"`
}

func toResponse(doc Document, lines []LineItem) documentResponse {
	resp := documentResponse{
		ID:         doc.ID,
		Kind:       string(doc.Kind),
		Number:     doc.Number,
		Status:     string(doc.Status),
		Supplier:   doc.Supplier,
		Reference:  doc.Reference,
		Notes:      doc.Notes,
		ApproverID: doc.ApproverID,
		GrandTotal: doc.GrandTotal,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
	if !doc.ApprovalDate.IsZero() {
		t := doc.ApprovalDate
		resp.ApprovalDate = &t
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, lineResponse{
			ID:          l.ID,
			Description: l.Description,
			QtyOrdered:  l.QtyOrdered,
			QtyReceived: l.QtyReceived,
			UnitPrice:   l.UnitPrice,
			Status:      string(l.Status),
		})
	}
	return resp
}

func toLineInputs(lines []lineRequest) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineInput{Description: l.Description, Qty: l.Qty, UnitPrice: l.UnitPrice})
	}
	return out
}

// actor identifies the acting principal. Authentication is handled upstream;
// the gateway forwards the identity in X-Actor.
func actor(r *http.Request) string {
	if v := r.Header.Get("X-Actor"); v != "" {
		return v
	}
	return "anonymous"
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	doc, err := h.service.Create(r.Context(), CreateInput{
		Kind:      Kind(req.Kind),
		Supplier:  req.Supplier,
		Reference: req.Reference,
		Notes:     req.Notes,
		Lines:     toLineInputs(req.Lines),
	}, actor(r))
	if err != nil {
		h.logger.Error("create document", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(doc, nil))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	filters := ListFilters{
		Kind:    Kind(r.URL.Query().Get("kind")),
		Status:  Status(r.URL.Query().Get("status")),
		Search:  r.URL.Query().Get("search"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("dir"),
	}
	docs, total, err := h.service.List(r.Context(), filters, limit, offset)
	if err != nil {
		h.logger.Error("list documents", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		items = append(items, toResponse(d, nil))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(urlParam(r, "id"), 10, 64)
	doc, lines, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(doc, lines))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(urlParam(r, "id"), 10, 64)
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return
	}
	doc, err := h.service.Submit(r.Context(), id, req.ApproverID, actor(r))
	if err != nil {
		h.logger.Error("submit document", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(doc, nil))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(urlParam(r, "id"), 10, 64)
	doc, err := h.service.Approve(r.Context(), id, actor(r))
	if err != nil {
		h.logger.Error("approve document", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(doc, nil))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(urlParam(r, "id"), 10, 64)
	var req rejectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return
	}
	doc, err := h.service.Reject(r.Context(), id, req.Reason, actor(r))
	if err != nil {
		h.logger.Error("reject document", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(doc, nil))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(urlParam(r, "id"), 10, 64)
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	doc, err := h.service.Update(r.Context(), id, UpdateInput{
		Supplier:   req.Supplier,
		Reference:  req.Reference,
		Notes:      req.Notes,
		ApproverID: req.ApproverID,
		Lines:      toLineInputs(req.Lines),
	}, actor(r))
	if err != nil {
		h.logger.Error("update document", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(doc, nil))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(urlParam(r, "id"), 10, 64)
	if err := h.service.Delete(r.Context(), id, actor(r)); err != nil {
		h.logger.Error("delete document", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleApprovalQueue(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		identity = actor(r)
	}
	approver, err := h.directory.FindByContactIdentity(r.Context(), identity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	docs, err := h.service.PendingForApprover(r.Context(), approver.ID)
	if err != nil {
		h.logger.Error("approval queue", slog.Any("error", err), slog.Int64("approver_id", approver.ID))
		httpx.RespondError(w, err)
		return
	}
	items := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		items = append(items, toResponse(d, nil))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"approver_id": approver.ID, "items": items})
}
