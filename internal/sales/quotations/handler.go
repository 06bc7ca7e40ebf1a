package quotations

import (
	"log/slog"
	"net/http"

	"github.com/bizledger/bizledger/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.service.List(r.Context(), ListQuotationsRequest{
		CustomerID: q.Get("customer_id"),
		Status:     q.Get("status"),
	})
	if err != nil {
		httpx.Fail(w, h.logger, "list quotations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quotation, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quotation)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quotation, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, "create quotation", err)
		return
	}
	h.logger.Info("quotation created", slog.String("number", quotation.Number))
	httpx.JSON(w, http.StatusCreated, quotation)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quotation, err := h.service.Edit(r.Context(), id, req)
	if err != nil {
		httpx.Fail(w, h.logger, "edit quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quotation)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete quotation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	invoice, err := h.service.Convert(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "convert quotation", err)
		return
	}
	h.logger.Info("quotation converted",
		slog.Int64("quotation_id", id),
		slog.String("invoice_number", invoice.Number))
	httpx.JSON(w, http.StatusCreated, invoice)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quotation, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "cancel quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quotation)
}
