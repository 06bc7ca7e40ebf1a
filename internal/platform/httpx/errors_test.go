package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/shared"
)

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) ProblemDetail {
	t.Helper()
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var p ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p
}

func TestRespondErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: bad json", ErrBadRequest), http.StatusBadRequest},
		{fmt.Errorf("invoice 9: %w", ledger.ErrInvoiceNotFound), http.StatusNotFound},
		{ledger.ErrInvalidValue, http.StatusUnprocessableEntity},
		{ledger.ErrQuotationLocked, http.StatusConflict},
		{ledger.ErrRecordLocked, http.StatusConflict},
		{fmt.Errorf("supplier 3: %w", ledger.ErrSupplierNotFound), http.StatusNotFound},
		{ledger.ErrActivityNotFound, http.StatusNotFound},
		{ledger.ErrDuplicateDocumentNumber, http.StatusConflict},
		{shared.ErrIdempotencyConflict, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{ledger.Persistence("InsertInvoice", errors.New("disk full")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
		assert.Equal(t, tc.status, decodeProblem(t, rr).Status)
	}
}

func TestRespondErrorCarriesShortage(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("convert: %w", &ledger.InsufficientStockError{ItemID: 4, ItemName: "Inverter", Requested: 3, Available: 1}))

	require.Equal(t, http.StatusConflict, rr.Code)
	p := decodeProblem(t, rr)
	assert.Equal(t, "Insufficient Stock", p.Title)
	assert.EqualValues(t, 3, p.Extensions["requested"])
	assert.EqualValues(t, 1, p.Extensions["available"])
}

func TestRespondErrorCarriesOverPayment(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, &ledger.OverPaymentError{Amount: decimal.RequireFromString("80"), BalanceDue: decimal.RequireFromString("50.5")})

	require.Equal(t, http.StatusConflict, rr.Code)
	p := decodeProblem(t, rr)
	assert.Equal(t, "80.00", p.Extensions["amount"])
	assert.Equal(t, "50.50", p.Extensions["balance_due"])
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, ErrBadRequest)
}

func TestIDParam(t *testing.T) {
	r := chi.NewRouter()
	var got int64
	var gotErr error
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = IDParam(r, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, int64(42), got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/-1", nil))
	require.ErrorIs(t, gotErr, ErrBadRequest)
}
