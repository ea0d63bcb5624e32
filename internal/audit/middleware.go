package audit

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/paypal-orders/internal/common"
)

// HTTPRecorder writes an audit entry once the wrapped handler has replied.
type HTTPRecorder struct {
	Service *Service
	OnError func(error)
}

// HTTPConfig describes the entry produced for one route. ResourceIDParam
// names the chi URL parameter holding the resource id.
type HTTPConfig struct {
	Action          string
	ResourceType    string
	ResourceIDParam string
	Metadata        func(r *http.Request, status int) map[string]any
}

// Middleware audits every request reaching the route, successful or not.
// Entries are written with a context detached from client cancellation.
func (h HTTPRecorder) Middleware(cfg HTTPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h.Service == nil || !h.Service.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			rec := common.NewStatusRecorder(w)
			next.ServeHTTP(rec, r)

			entry := Entry{
				Actor:        ActorFromRequest(r),
				Action:       cfg.Action,
				ResourceType: cfg.ResourceType,
				Status:       rec.Status(),
				Metadata:     map[string]any{"outcome": outcome(rec.Status())},
			}
			if cfg.ResourceIDParam != "" {
				entry.ResourceID = chi.URLParam(r, cfg.ResourceIDParam)
			}
			if cfg.Metadata != nil {
				for k, v := range cfg.Metadata(r, rec.Status()) {
					entry.Metadata[k] = v
				}
			}
			if err := h.Service.Record(context.WithoutCancel(r.Context()), r, entry); err != nil && h.OnError != nil {
				h.OnError(err)
			}
		})
	}
}

func outcome(status int) string {
	if status >= 200 && status < 400 {
		return "success"
	}
	return "failure"
}
