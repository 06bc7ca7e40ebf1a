package activities

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

	rec := do(http.MethodPost, "/activities/", `{"customer_id":"AB12345","description":"Survey","total_cost":"120"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "SCHEDULED", created.Status)

	path := fmt.Sprintf("/activities/%d", created.ID)
	rec = do(http.MethodPut, path, `{"status":"COMPLETED"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"completed_at"`)

	rec = do(http.MethodGet, "/activities/?customer_id=AB12345&status=COMPLETED", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Survey")

	assert.Equal(t, http.StatusNotFound, do(http.MethodPost, "/activities/", `{"customer_id":"NOPE","description":"x"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(http.MethodPost, "/activities/", `{"description":"x","status":"LATE"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, path, "").Code)
}
