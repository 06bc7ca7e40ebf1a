package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/platform/httpx"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listItems)
	r.Post("/", h.createItem)
	r.Get("/low-stock", h.lowStock)
	r.Get("/valuation", h.valuation)
	r.Get("/transactions", h.listTransactions)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.getItem)
		r.Put("/", h.updateItem)
		r.Delete("/", h.deleteItem)
		r.Post("/stock-in", h.stockIn)
		r.Post("/stock-out", h.stockOut)
		r.Post("/adjust", h.adjust)
	})
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "list items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var input CreateItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.CreateItem(r.Context(), input)
	if err != nil {
		httpx.Fail(w, h.logger, "create item", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdateItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.UpdateItem(r.Context(), id, input)
	if err != nil {
		httpx.Fail(w, h.logger, "update item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stockIn(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input StockInInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	st, err := h.service.StockIn(r.Context(), id, input)
	if err != nil {
		httpx.Fail(w, h.logger, "stock in", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, st)
}

func (h *Handler) stockOut(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input StockOutInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	st, err := h.service.StockOut(r.Context(), id, input)
	if err != nil {
		httpx.Fail(w, h.logger, "stock out", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, st)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input AdjustInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	st, err := h.service.Adjust(r.Context(), id, input)
	if err != nil {
		httpx.Fail(w, h.logger, "adjust stock", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, st)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "low stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) valuation(w http.ResponseWriter, r *http.Request) {
	values, err := h.service.Valuate(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "valuation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, values)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	var filter ledger.StockTransactionFilter
	q := r.URL.Query()
	if raw := q.Get("item_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item_id")
			return
		}
		filter.ItemID = &id
	}
	if raw := q.Get("ref_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid ref_id")
			return
		}
		filter.RefID = &id
	}
	filter.RefType = ledger.RefType(q.Get("ref_type"))
	txns, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		httpx.Fail(w, h.logger, "list stock transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, txns)
}
