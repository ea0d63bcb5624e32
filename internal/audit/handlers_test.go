package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
)

type listStore struct {
	stubStore
	rows     []dbgen.AuditLog
	total    int64
	listErr  error
	received dbgen.ListAuditLogsParams
}

func (l *listStore) ListAuditLogs(_ context.Context, arg dbgen.ListAuditLogsParams) ([]dbgen.AuditLog, error) {
	l.received = arg
	return l.rows, l.listErr
}

func (l *listStore) CountAuditLogs(context.Context) (int64, error) {
	return l.total, nil
}

func TestHandlerListPaginatesAndShapesRows(t *testing.T) {
	store := &listStore{
		total: 26,
		rows: []dbgen.AuditLog{{
			ActorKind:    "admin",
			ActorSubject: pgtype.Text{String: "admin", Valid: true},
			Action:       "webhook.retry",
			ResourceType: "webhook_event",
			ResourceID:   pgtype.Text{String: "WH-1", Valid: true},
			StatusCode:   http.StatusOK,
			Metadata:     []byte(`{"outcome":"success"}`),
		}},
	}
	rr := httptest.NewRecorder()
	Handler{Store: store}.List(rr, httptest.NewRequest(http.MethodGet, "/api/audit-logs?limit=25&page=2", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, dbgen.ListAuditLogsParams{Limit: 25, Offset: 25}, store.received)

	var payload struct {
		Success    bool             `json:"success"`
		Data       []map[string]any `json:"data"`
		Pagination struct {
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.True(t, payload.Success)
	require.Equal(t, 2, payload.Pagination.TotalPages)
	require.Len(t, payload.Data, 1)

	entry := payload.Data[0]
	require.Equal(t, "WH-1", entry["resource_id"])
	require.Nil(t, entry["ip"])
	require.Equal(t, map[string]any{"outcome": "success"}, entry["metadata"])
}

func TestHandlerListEmptyAndErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	Handler{Store: &listStore{}}.List(rr, httptest.NewRequest(http.MethodGet, "/api/audit-logs", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"data":[]`)

	rr = httptest.NewRecorder()
	Handler{Store: &listStore{listErr: errors.New("db down")}}.List(rr, httptest.NewRequest(http.MethodGet, "/api/audit-logs", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Contains(t, rr.Body.String(), "AUDIT_QUERY_FAILED")

	rr = httptest.NewRecorder()
	Handler{}.List(rr, httptest.NewRequest(http.MethodGet, "/api/audit-logs", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
