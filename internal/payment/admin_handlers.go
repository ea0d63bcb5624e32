package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/noah-isme/paypal-orders/internal/common"
	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
)

// EventView is the JSON shape of a stored event.
type EventView struct {
	ID             int64           `json:"id"`
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	ResourceType   *string         `json:"resource_type"`
	ResourceID     *string         `json:"resource_id"`
	ResourceStatus *string         `json:"resource_status"`
	Amount         *string         `json:"amount"`
	Currency       *string         `json:"currency"`
	PayerEmail     *string         `json:"payer_email"`
	Processed      bool            `json:"processed"`
	ProcessingTime *float64        `json:"processing_time"`
	ErrorMessage   *string         `json:"error_message"`
	CreatedAt      *time.Time      `json:"created_at"`
	ProcessedAt    *time.Time      `json:"processed_at"`
	RawData        json.RawMessage `json:"raw_data,omitempty"`
}

// NewEventView converts a row; the raw payload is only included on request.
func NewEventView(row dbgen.WebhookEvent, withRaw bool) EventView {
	v := EventView{
		ID:             row.ID,
		EventID:        row.EventID,
		EventType:      row.EventType,
		ResourceType:   textPtr(row.ResourceType.String, row.ResourceType.Valid),
		ResourceID:     textPtr(row.ResourceID.String, row.ResourceID.Valid),
		ResourceStatus: textPtr(row.ResourceStatus.String, row.ResourceStatus.Valid),
		Currency:       textPtr(row.Currency.String, row.Currency.Valid),
		PayerEmail:     textPtr(row.PayerEmail.String, row.PayerEmail.Valid),
		Processed:      row.Processed,
		ErrorMessage:   textPtr(row.ErrorMessage.String, row.ErrorMessage.Valid),
	}
	if row.Amount.Valid {
		v.Amount = lo.ToPtr(row.Amount.Decimal.StringFixed(2))
	}
	if row.ProcessingTime.Valid {
		v.ProcessingTime = lo.ToPtr(row.ProcessingTime.Float64)
	}
	if row.CreatedAt.Valid {
		v.CreatedAt = lo.ToPtr(row.CreatedAt.Time)
	}
	if row.ProcessedAt.Valid {
		v.ProcessedAt = lo.ToPtr(row.ProcessedAt.Time)
	}
	if withRaw {
		if json.Valid([]byte(row.RawData)) {
			v.RawData = json.RawMessage(row.RawData)
		} else {
			v.RawData, _ = json.Marshal(row.RawData)
		}
	}
	return v
}

func textPtr(s string, valid bool) *string {
	if !valid {
		return nil
	}
	return &s
}

// AdminHandler exposes the operator surface over stored events.
type AdminHandler struct {
	Store       Store
	Retrier     *Retrier
	Mode        string
	StatsWindow time.Duration
	Logger      zerolog.Logger
	Now         func() time.Time
}

// ListEvents handles GET /api/webhooks/events.
func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{EventType: strings.TrimSpace(r.URL.Query().Get("event_type"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("processed")); raw != "" {
		processed, err := strconv.ParseBool(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_FILTER", "processed must be true or false", nil)
			return
		}
		filter.Processed = &processed
	}
	page, perPage := common.ParsePagination(r, 50, 100)
	filter.Limit = perPage
	filter.Offset = common.Offset(page, perPage)

	rows, total, err := h.Store.List(r.Context(), filter)
	if err != nil {
		h.internal(w, err, "list webhook events")
		return
	}
	common.JSONSuccess(w, http.StatusOK, map[string]any{
		"events": lo.Map(rows, func(row dbgen.WebhookEvent, _ int) EventView {
			return NewEventView(row, false)
		}),
		"pagination": common.NewPagination(page, perPage, total),
	})
}

// GetEvent handles GET /api/webhooks/events/{id}.
func (h *AdminHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	row, err := Lookup(r.Context(), h.Store, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONSuccess(w, http.StatusOK, map[string]any{"event": NewEventView(row, true)})
}

// Stats handles GET /api/webhooks/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.Stats(r.Context(), h.now().Add(-h.window()))
	if err != nil {
		h.internal(w, err, "webhook stats")
		return
	}
	common.JSONSuccess(w, http.StatusOK, map[string]any{"stats": stats})
}

// Retry handles POST /api/webhooks/events/{id}/retry.
func (h *AdminHandler) Retry(w http.ResponseWriter, r *http.Request) {
	if h.Retrier == nil {
		common.JSONError(w, http.StatusInternalServerError, "RETRY_NOT_CONFIGURED", "retry unavailable", nil)
		return
	}
	row, err := h.Retrier.Retry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONSuccess(w, http.StatusOK, map[string]any{
		"message": "Event reprocessed successfully",
		"event":   NewEventView(row, false),
	})
}

// Status handles GET /api/webhooks/status.
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.Stats(r.Context(), h.now().Add(-h.window()))
	if err != nil {
		h.internal(w, err, "webhook status")
		return
	}
	common.JSONSuccess(w, http.StatusOK, map[string]any{
		"status":             "active",
		"recent_events_24h":  stats.RecentEvents,
		"unprocessed_events": stats.UnprocessedEvents,
		"last_event_at":      stats.LastEventAt,
		"verification_mode":  h.Mode,
	})
}

func (h *AdminHandler) writeError(w http.ResponseWriter, err error) {
	var handlerErr *HandlerError
	switch {
	case errors.Is(err, ErrEventNotFound):
		common.JSONError(w, http.StatusNotFound, "EVENT_NOT_FOUND", "Event not found", nil)
	case errors.Is(err, ErrAlreadyProcessed):
		common.JSONError(w, http.StatusConflict, "ALREADY_PROCESSED", "Event already processed", nil)
	case errors.Is(err, ErrRetryInProgress):
		common.JSONError(w, http.StatusConflict, "RETRY_IN_PROGRESS", "Retry already in progress", nil)
	case errors.As(err, &handlerErr):
		h.Logger.Error().Err(err).Msg("webhook retry failed")
		common.JSONError(w, http.StatusInternalServerError, "RETRY_FAILED", "Retry failed", map[string]any{
			"error": handlerErr.Err.Error(),
		})
	default:
		h.internal(w, err, "webhook event")
	}
}

func (h *AdminHandler) internal(w http.ResponseWriter, err error, msg string) {
	h.Logger.Error().Err(err).Msg(msg)
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}

func (h *AdminHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *AdminHandler) window() time.Duration {
	if h.StatsWindow <= 0 {
		return 24 * time.Hour
	}
	return h.StatsWindow
}
