package audit

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/noah-isme/paypal-orders/internal/common"
	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
)

// Handler serves the operator's audit trail.
type Handler struct {
	Store Store
}

// LogView is the API shape of one audit entry.
type LogView struct {
	ID           uuid.UUID       `json:"id"`
	ActorKind    string          `json:"actor_kind"`
	ActorSubject *string         `json:"actor_subject"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   *string         `json:"resource_id"`
	IP           *string         `json:"ip"`
	UserAgent    *string         `json:"user_agent"`
	RequestID    *string         `json:"request_id"`
	StatusCode   int32           `json:"status_code"`
	Metadata     json.RawMessage `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toView(row dbgen.AuditLog) LogView {
	v := LogView{
		ID:           row.ID,
		ActorKind:    row.ActorKind,
		Action:       row.Action,
		ResourceType: row.ResourceType,
		StatusCode:   row.StatusCode,
		CreatedAt:    row.CreatedAt.Time,
	}
	if row.ActorSubject.Valid {
		v.ActorSubject = lo.ToPtr(row.ActorSubject.String)
	}
	if row.ResourceID.Valid {
		v.ResourceID = lo.ToPtr(row.ResourceID.String)
	}
	if row.Ip.Valid {
		v.IP = lo.ToPtr(row.Ip.String)
	}
	if row.UserAgent.Valid {
		v.UserAgent = lo.ToPtr(row.UserAgent.String)
	}
	if row.RequestID.Valid {
		v.RequestID = lo.ToPtr(row.RequestID.String)
	}
	if json.Valid(row.Metadata) {
		v.Metadata = row.Metadata
	}
	return v
}

// List handles GET /api/audit-logs, newest first.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 50, 200)
	ctx := r.Context()

	rows, err := h.Store.ListAuditLogs(ctx, dbgen.ListAuditLogsParams{
		Limit:  int32(perPage),
		Offset: int32(common.Offset(page, perPage)),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to fetch audit logs", nil)
		return
	}
	total, err := h.Store.CountAuditLogs(ctx)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to count audit logs", nil)
		return
	}
	common.JSONSuccess(w, http.StatusOK, map[string]any{
		"data":       lo.Map(rows, func(row dbgen.AuditLog, _ int) LogView { return toView(row) }),
		"pagination": common.NewPagination(page, perPage, total),
	})
}
