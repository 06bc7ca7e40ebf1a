package quotations

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerLifecycle(t *testing.T) {
	e := setup(t)
	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), e.svc).MountRoutes(r)
	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}

	body := fmt.Sprintf(`{"customer_id":"AB12345","lines":[{"inventory_id":%d,"quantity":2}]}`, e.panel.ID)
	rec := do(http.MethodPost, "/quotations", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID     int64  `json:"id"`
		Number string `json:"number"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "ALAB12345", created.Number)

	path := fmt.Sprintf("/quotations/%d", created.ID)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/quotations?customer_id=AB12345", "").Code)

	rec = do(http.MethodPost, path+"/convert", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"number":"ALAB12345"`)

	assert.Equal(t, http.StatusConflict, do(http.MethodPost, path+"/cancel", "").Code)
	assert.Equal(t, http.StatusConflict, do(http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/quotations/x", "").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/quotations/999", "").Code)
}
