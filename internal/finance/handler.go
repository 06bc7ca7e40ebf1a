package finance

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/platform/httpx"
)

// Handler exposes financial records and the summary over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers finance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/finance", func(r chi.Router) {
		r.Get("/records", h.list)
		r.Post("/records", h.record)
		r.Delete("/records/{id}", h.deleteRecord)
		r.Get("/summary", h.summary)
		r.Get("/expense-categories", h.expenseCategories)
		r.Get("/categories", h.categories)
		r.Post("/categories", h.createCategory)
		r.Delete("/categories/{id}", h.deleteCategory)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.List(r.Context(), ListEntriesRequest{Type: r.URL.Query().Get("type"), From: from, To: to})
	if err != nil {
		httpx.Fail(w, h.logger, "list financial records", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req RecordEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.Record(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, "record financial entry", err)
		return
	}
	h.logger.Info("financial entry recorded",
		slog.String("type", string(rec.Type)),
		slog.String("category", rec.Category),
		slog.String("amount", rec.Amount.StringFixed(2)))
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sum, err := h.service.Summary(r.Context(), from, to)
	if err != nil {
		httpx.Fail(w, h.logger, "finance summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete financial record", err)
		return
	}
	h.logger.Info("financial entry deleted", slog.Int64("record_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// expenseCategories lists expense category names only.
func (h *Handler) expenseCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.ListCategories(r.Context(), string(ledger.Expense))
	if err != nil {
		httpx.Fail(w, h.logger, "list expense categories", err)
		return
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	httpx.JSON(w, http.StatusOK, names)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.ListCategories(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		httpx.Fail(w, h.logger, "list financial categories", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cats)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	cat, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, "create financial category", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cat)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete financial category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseRange reads from/to (YYYY-MM-DD). The to date is inclusive.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, fmt.Errorf("%w: from must be YYYY-MM-DD", httpx.ErrBadRequest)
		}
		from = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, fmt.Errorf("%w: to must be YYYY-MM-DD", httpx.ErrBadRequest)
		}
		to = t.AddDate(0, 0, 1)
	}
	return from, to, nil
}
