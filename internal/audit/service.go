package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/paypal-orders/internal/common"
	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
	"github.com/noah-isme/paypal-orders/internal/obs"
)

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	// ActorKindAdmin is the operator signed in through the admin session.
	ActorKindAdmin ActorKind = "admin"
	// ActorKindSystem represents internal automated actions.
	ActorKindSystem ActorKind = "system"
	// ActorKindAnonymous represents unauthenticated actors.
	ActorKindAnonymous ActorKind = "anonymous"
)

// Actor describes the entity performing the action.
type Actor struct {
	Kind    ActorKind
	Subject string
}

// ActorFromRequest derives the actor from the admin session subject.
func ActorFromRequest(r *http.Request) Actor {
	if r != nil {
		if subject, ok := common.Subject(r.Context()); ok {
			return Actor{Kind: ActorKindAdmin, Subject: subject}
		}
	}
	return Actor{Kind: ActorKindAnonymous}
}

// Store defines the database operations required for auditing.
type Store interface {
	InsertAuditLog(ctx context.Context, arg dbgen.InsertAuditLogParams) (dbgen.InsertAuditLogRow, error)
	ListAuditLogs(ctx context.Context, arg dbgen.ListAuditLogsParams) ([]dbgen.AuditLog, error)
	CountAuditLogs(ctx context.Context) (int64, error)
}

// Service persists audit logs for admin mutations.
type Service struct {
	Store        Store
	Enabled      bool
	SamplingRate float64
}

// Entry is one audited action. Empty Action and ResourceType are derived
// from the matched route.
type Entry struct {
	Actor        Actor
	Action       string
	ResourceType string
	ResourceID   string
	Status       int
	Metadata     map[string]any
}

// Record persists e for the request req when auditing is enabled.
func (s Service) Record(ctx context.Context, req *http.Request, e Entry) error {
	if !s.Enabled {
		return nil
	}
	if s.SamplingRate > 0 && s.SamplingRate < 1 && rand.Float64() > s.SamplingRate {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}

	route := obs.RoutePatternFromContext(req.Context())
	if route == "" {
		route = strings.TrimSpace(req.URL.Path)
	}
	status := e.Status
	if status == 0 {
		status = http.StatusOK
	}
	metadata, err := encodeMetadata(e.Metadata, req.URL.RawQuery)
	if err != nil {
		return err
	}

	_, err = s.Store.InsertAuditLog(ctx, dbgen.InsertAuditLogParams{
		ActorKind:    string(normalizeActorKind(e.Actor.Kind)),
		ActorSubject: toNullText(e.Actor.Subject),
		Action:       buildAction(e.Action, req.Method, route),
		ResourceType: buildResource(e.ResourceType, route),
		ResourceID:   toNullText(e.ResourceID),
		Ip:           toNullText(common.ClientIP(req)),
		UserAgent:    toNullText(req.Header.Get("User-Agent")),
		RequestID:    toNullText(requestID(req)),
		StatusCode:   int32(status),
		Metadata:     metadata,
	})
	return err
}

// requestID prefers the id assigned by the request-id middleware.
func requestID(req *http.Request) string {
	if id := middleware.GetReqID(req.Context()); id != "" {
		return id
	}
	return req.Header.Get(middleware.RequestIDHeader)
}

func buildAction(action, method, route string) string {
	trimmed := strings.TrimSpace(action)
	if trimmed != "" {
		return trimmed
	}
	target := route
	if target == "" {
		target = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + target
}

func buildResource(resourceType, route string) string {
	trimmed := strings.TrimSpace(resourceType)
	if trimmed != "" {
		return trimmed
	}
	route = strings.Trim(route, " /")
	if route == "" {
		return "unknown"
	}
	segments := strings.Split(route, "/")
	if len(segments) >= 2 && segments[0] == "api" {
		segments = segments[1:]
	}
	kept := segments[:0]
	for _, segment := range segments {
		if strings.HasPrefix(segment, "{") {
			continue
		}
		kept = append(kept, segment)
	}
	return strings.Join(kept, ".")
}

func normalizeActorKind(kind ActorKind) ActorKind {
	switch kind {
	case ActorKindAdmin, ActorKindSystem:
		return kind
	default:
		return ActorKindAnonymous
	}
}

func toNullText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

// encodeMetadata returns nil when there is nothing to store. The raw query
// is kept under "query" unless metadata already sets it.
func encodeMetadata(metadata map[string]any, query string) ([]byte, error) {
	out := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	if q := strings.TrimSpace(query); q != "" {
		if _, ok := out["query"]; !ok {
			out["query"] = q
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("audit: encode metadata: %w", err)
	}
	return data, nil
}
