package finance

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	_, svc := newService(t, false)
	r := chi.NewRouter()
	NewHandler(slog.Default(), svc).MountRoutes(r)
	return r
}

func TestHandlerRecordAndSummary(t *testing.T) {
	r := newRouter(t)

	rec := httptest.NewRecorder()
	body := `{"type":"EXPENSE","category":"Utilities","description":"Power","amount":"120.50"}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/finance/records", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/finance/summary?from=2024-03-01&to=2024-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var sum struct {
		Expense string `json:"expense"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, "120.5", sum.Expense)
}

func TestHandlerRejectsBadInput(t *testing.T) {
	r := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/finance/summary?from=March", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	body := `{"type":"EXPENSE","category":"Lottery","description":"x","amount":"1"}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/finance/records", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/finance/expense-categories", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Solar Maintenance")
}

func TestHandlerDeletesRecordsAndCategories(t *testing.T) {
	r := newRouter(t)

	rec := httptest.NewRecorder()
	body := `{"name":"Insurance","type":"EXPENSE"}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/finance/categories", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var cat struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cat))

	rec = httptest.NewRecorder()
	body = `{"type":"EXPENSE","category":"Insurance","description":"Van","amount":"60"}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/finance/records", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var entry struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/finance/records/%d", entry.ID), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/finance/records/%d", entry.ID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/finance/categories/%d", cat.ID), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/finance/categories?type=EXPENSE", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Insurance")
}
