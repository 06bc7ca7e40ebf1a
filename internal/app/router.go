package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bizledger/bizledger/internal/ar/invoices"
	"github.com/bizledger/bizledger/internal/ar/payments"
	"github.com/bizledger/bizledger/internal/finance"
	"github.com/bizledger/bizledger/internal/inventory"
	"github.com/bizledger/bizledger/internal/masterdata/suppliers"
	"github.com/bizledger/bizledger/internal/observability"
	"github.com/bizledger/bizledger/internal/platform/httpx"
	"github.com/bizledger/bizledger/internal/sales/activities"
	"github.com/bizledger/bizledger/internal/sales/customers"
	"github.com/bizledger/bizledger/internal/sales/quotations"
	"github.com/bizledger/bizledger/jobs"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Metrics           *observability.Metrics
	Database          Pinger
	InventoryHandler  *inventory.Handler
	SuppliersHandler  *suppliers.Handler
	CustomersHandler  *customers.Handler
	ActivitiesHandler *activities.Handler
	QuotationsHandler *quotations.Handler
	InvoicesHandler   *invoices.Handler
	PaymentsHandler   *payments.Handler
	FinanceHandler    *finance.Handler
	JobsHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with bizledger defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if params.Database != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := params.Database.Ping(ctx); err != nil {
				params.Logger.Warn("readiness check failed", slog.Any("error", err))
				httpx.Problem(w, http.StatusServiceUnavailable, "Database Unavailable", "")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	if params.InventoryHandler != nil {
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
	}
	if params.SuppliersHandler != nil {
		params.SuppliersHandler.MountRoutes(r)
	}
	if params.CustomersHandler != nil {
		params.CustomersHandler.MountRoutes(r)
	}
	if params.ActivitiesHandler != nil {
		params.ActivitiesHandler.MountRoutes(r)
	}
	if params.QuotationsHandler != nil {
		params.QuotationsHandler.MountRoutes(r)
	}
	if params.InvoicesHandler != nil {
		params.InvoicesHandler.MountRoutes(r)
	}
	if params.PaymentsHandler != nil {
		params.PaymentsHandler.MountRoutes(r)
	}
	if params.FinanceHandler != nil {
		params.FinanceHandler.MountRoutes(r)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	})
	return r
}
