package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
	require.Equal(t, "Order not found", body["message"])
	require.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestJSONSuccessAddsFlag(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONSuccess(rec, http.StatusCreated, map[string]any{"message": "ok"})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, "ok", body["message"])
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestWriteErrorHidesUnexpectedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: connection reset"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "connection reset")

	rec = httptest.NewRecorder()
	WriteError(rec, NewAppError("CONFLICT", "already processed", http.StatusConflict, nil))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "already processed")
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500", nil)
	page, perPage := ParsePagination(req, 20, 100)
	require.Equal(t, 3, page)
	require.Equal(t, 100, perPage)
	require.Equal(t, 200, Offset(page, perPage))

	req = httptest.NewRequest(http.MethodGet, "/?page=-1&limit=abc", nil)
	page, perPage = ParsePagination(req, 20, 100)
	require.Equal(t, 1, page)
	require.Equal(t, 20, perPage)
	require.Equal(t, 0, Offset(page, perPage))

	p := NewPagination(2, 20, 41)
	require.Equal(t, 3, p.TotalPages)
}
