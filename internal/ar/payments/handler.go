package payments

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bizledger/bizledger/internal/platform/httpx"
)

// Handler manages payment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(r.URL.Query().Get("invoice_id"), 10, 64)
	if err != nil || invoiceID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invoice_id query parameter required", httpx.ErrBadRequest))
		return
	}
	out, err := h.service.ListForInvoice(r.Context(), invoiceID)
	if err != nil {
		httpx.Fail(w, h.logger, "list payments", err)
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
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	p, err := h.service.Record(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, "record payment", err)
		return
	}
	h.logger.Info("payment recorded",
		slog.Int64("invoice_id", p.InvoiceID),
		slog.String("transaction_id", p.TransactionID),
		slog.String("amount", p.Amount.StringFixed(2)))
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req EditPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Edit(r.Context(), id, req)
	if err != nil {
		httpx.Fail(w, h.logger, "edit payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete payment", err)
		return
	}
	h.logger.Info("payment deleted", slog.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}
