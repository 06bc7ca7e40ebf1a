package invoices

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bizledger/bizledger/internal/platform/httpx"
)

// Handler manages invoice endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.service.List(r.Context(), ListInvoicesRequest{
		CustomerID: q.Get("customer_id"),
		Status:     q.Get("status"),
	})
	if err != nil {
		httpx.Fail(w, h.logger, "list invoices", err)
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
	invoice, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	invoice, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, "create invoice", err)
		return
	}
	h.logger.Info("invoice created",
		slog.String("number", invoice.Number),
		slog.String("total", invoice.TotalAmount.StringFixed(2)))
	httpx.JSON(w, http.StatusCreated, invoice)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	invoice, err := h.service.Edit(r.Context(), id, req)
	if err != nil {
		httpx.Fail(w, h.logger, "edit invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete invoice", err)
		return
	}
	h.logger.Info("invoice deleted", slog.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	invoice, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "cancel invoice", err)
		return
	}
	h.logger.Info("invoice cancelled", slog.String("number", invoice.Number))
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	invoice, err := h.service.Send(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "send invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *Handler) sweepOverdue(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.MarkOverdue(r.Context(), asOf)
	if err != nil {
		httpx.Fail(w, h.logger, "mark overdue", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	bucket, err := h.service.Aging(r.Context(), asOf)
	if err != nil {
		httpx.Fail(w, h.logger, "invoice aging", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bucket)
}

func (h *Handler) listActivityTypes(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListActivityTypes(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "list activity types", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createActivityType(w http.ResponseWriter, r *http.Request) {
	var req CreateActivityTypeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	at, err := h.service.CreateActivityType(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, "create activity type", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, at)
}

func (h *Handler) deleteActivityType(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteActivityType(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete activity type", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseAsOf reads the optional as_of query parameter (YYYY-MM-DD).
func parseAsOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Time{}, nil
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: as_of must be YYYY-MM-DD", httpx.ErrBadRequest)
	}
	return asOf, nil
}
