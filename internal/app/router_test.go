package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/bizledger/internal/ar/invoices"
	"github.com/bizledger/bizledger/internal/ar/payments"
	"github.com/bizledger/bizledger/internal/finance"
	"github.com/bizledger/bizledger/internal/inventory"
	"github.com/bizledger/bizledger/internal/ledger/memstore"
	"github.com/bizledger/bizledger/internal/masterdata/suppliers"
	"github.com/bizledger/bizledger/internal/observability"
	"github.com/bizledger/bizledger/internal/sales/activities"
	"github.com/bizledger/bizledger/internal/sales/customers"
	"github.com/bizledger/bizledger/internal/sales/quotations"
	"github.com/bizledger/bizledger/jobs"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestRouter(t *testing.T, db Pinger) (http.Handler, *observability.Metrics) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	metrics := observability.NewMetrics()
	financeSvc := finance.NewService(store, finance.ServiceConfig{Logger: logger, Observer: metrics})

	router := NewRouter(RouterParams{
		Logger:            logger,
		Config:            &Config{RateLimitPerMinute: 1000},
		Metrics:           metrics,
		Database:          db,
		InventoryHandler:  inventory.NewHandler(logger, inventory.NewService(store, inventory.ServiceConfig{Observer: metrics})),
		SuppliersHandler:  suppliers.NewHandler(logger, suppliers.NewService(store, nil, metrics)),
		CustomersHandler:  customers.NewHandler(logger, customers.NewService(store, nil)),
		ActivitiesHandler: activities.NewHandler(logger, activities.NewService(store, activities.ServiceConfig{Observer: metrics})),
		QuotationsHandler: quotations.NewHandler(logger, quotations.NewService(store, quotations.ServiceConfig{Invalidator: financeSvc})),
		InvoicesHandler:   invoices.NewHandler(logger, invoices.NewService(store, invoices.ServiceConfig{Invalidator: financeSvc})),
		PaymentsHandler:   payments.NewHandler(logger, payments.NewService(store, payments.ServiceConfig{Invalidator: financeSvc})),
		FinanceHandler:    finance.NewHandler(logger, financeSvc),
		JobsHandler:       jobs.NewHandler(nil, nil, logger),
	})
	return router, metrics
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReadiness(t *testing.T) {
	router, _ := newTestRouter(t, pingFunc(func(context.Context) error { return nil }))

	rr := do(t, router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Frame-Options"))

	rr = do(t, router, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	down, _ := newTestRouter(t, pingFunc(func(context.Context) error { return errors.New("refused") }))
	rr = do(t, down, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/problem+json")
}

func TestUnknownRouteIsProblem(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rr := do(t, router, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/problem+json")
}

func TestRoutesReachServices(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rr := do(t, router, http.MethodPost, "/inventory", `{"name":"Solar Panel","quantity":4,"unit_price":"100","cost_price":"70"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, router, http.MethodGet, "/inventory", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	assert.Len(t, items, 1)

	for _, path := range []string{"/customers", "/suppliers", "/activities", "/quotations", "/invoices", "/finance/summary", "/finance/expense-categories", "/finance/categories", "/jobs/health"} {
		rr = do(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	rr = do(t, router, http.MethodGet, "/payments", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	do(t, router, http.MethodGet, "/healthz", "")

	rr := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `bizledger_http_requests_total{code="200",route="/healthz"} 1`)
}
