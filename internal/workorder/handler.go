package workorder

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/velodesk/velodesk/internal/platform/httpx"
	"github.com/velodesk/velodesk/internal/stock"
)

// Handler manages work order HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	board    *Board
	exporter *CSVExporter
	validate *validator.Validate
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service, board *Board, exporter *CSVExporter) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		board:    board,
		exporter: exporter,
		validate: validator.New(),
	}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/board", h.boardSummary)
	r.Get("/export.csv", h.exportCSV)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.delete)
		r.Post("/edit", h.commitEdit)
		r.Post("/start", h.start)
		r.Post("/complete", h.complete)
		r.Post("/deliver", h.deliver)
		r.Post("/quote/send", h.sendQuote)
		r.Post("/quote/respond", h.respondQuote)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := listRequestFromQuery(r)
	resp, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list work orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create work order", slog.Any("error", err))
		h.respondDomainError(w, err)
		return
	}
	h.board.Invalidate(r.Context())
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) commitEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req CommitEditRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.CommitEdit(r.Context(), id, req)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.board.Invalidate(r.Context())
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req StartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.Start(r.Context(), id, req)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.board.Invalidate(r.Context())
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	order, err := h.service.Complete(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.board.Invalidate(r.Context())
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) deliver(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	order, err := h.service.Deliver(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.board.Invalidate(r.Context())
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) sendQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	order, err := h.service.SendQuote(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) respondQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req RespondQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.RespondToQuote(r.Context(), id, req)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.board.Invalidate(r.Context())
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.board.Invalidate(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) boardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.board.Summary(r.Context())
	if err != nil {
		h.logger.Error("board summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	req := listRequestFromQuery(r)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="work_orders.csv"`)
	if err := h.exporter.Write(r.Context(), w, req); err != nil {
		h.logger.Error("export work orders", slog.Any("error", err))
	}
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}

// respondDomainError maps lifecycle errors to problem responses.
func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	var insufficient *stock.InsufficientStockError
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &insufficient):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock",
			fmt.Sprintf("part %d has only %d in stock", insufficient.PartID, insufficient.Available))
	case errors.Is(err, ErrCannotStart),
		errors.Is(err, ErrCannotEdit),
		errors.Is(err, ErrCannotComplete),
		errors.Is(err, ErrCannotDeliver),
		errors.Is(err, ErrCannotDelete),
		errors.Is(err, ErrQuoteUnresolved),
		errors.Is(err, ErrQuoteNotNeeded),
		errors.Is(err, ErrQuoteAlreadySent),
		errors.Is(err, ErrQuoteNotSent):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrMechanicRequired),
		errors.Is(err, ErrInvalidOutcome),
		errors.Is(err, ErrRejectedItemsEmpty),
		errors.Is(err, ErrRejectedNotAdditional),
		errors.Is(err, ErrLineNotFound),
		errors.Is(err, ErrUnknownCatalogItem):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
	default:
		h.logger.Error("work order operation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func listRequestFromQuery(r *http.Request) ListRequest {
	q := r.URL.Query()
	var req ListRequest
	if v := q.Get("status"); v != "" {
		status := Status(v)
		req.Status = &status
	}
	if v := q.Get("mechanic_id"); v != "" {
		req.MechanicID = &v
	}
	if v := q.Get("client_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.ClientID = &id
		}
	}
	if v := q.Get("needs_quote"); v != "" {
		needs := v == "true" || v == "1"
		req.NeedsQuote = &needs
	}
	if v := q.Get("search"); v != "" {
		req.Search = &v
	}
	req.Limit, _ = strconv.Atoi(q.Get("limit"))
	req.Offset, _ = strconv.Atoi(q.Get("offset"))
	return req
}
