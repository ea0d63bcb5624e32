package payment

import (
	"io"
	"net/http"

	"github.com/noah-isme/paypal-orders/internal/common"
)

// WebhookHandler receives PayPal notifications.
type WebhookHandler struct {
	Processor *Processor
}

// Receive handles POST /api/webhooks/paypal.
func (h WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if h.Processor == nil {
		common.JSONError(w, http.StatusInternalServerError, "WEBHOOK_NOT_CONFIGURED", "webhook unavailable", nil)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "unable to read payload", nil)
		return
	}
	writeResult(w, h.Processor.Process(r.Context(), body, r.Header))
}

func writeResult(w http.ResponseWriter, res Result) {
	seconds := res.Duration.Seconds()
	switch res.Outcome {
	case OutcomeRejected:
		common.JSONError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "webhook verification failed", nil)
	case OutcomeMalformed:
		common.JSONError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "malformed webhook payload", nil)
	case OutcomeDuplicate:
		common.JSONSuccess(w, http.StatusOK, map[string]any{
			"status":   OutcomeDuplicate,
			"message":  "Event already received",
			"event_id": res.EventID,
		})
	case OutcomeUnhandled:
		common.JSONSuccess(w, http.StatusOK, map[string]any{
			"status":          OutcomeUnhandled,
			"message":         "Unhandled event type",
			"event_type":      res.EventType,
			"event_id":        res.EventID,
			"processing_time": seconds,
		})
	case OutcomeFailed:
		msg := "internal error"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		if !res.Recorded {
			common.JSONError(w, http.StatusInternalServerError, "WEBHOOK_STORE_ERROR", "unable to record webhook event", nil)
			return
		}
		common.JSON(w, http.StatusInternalServerError, map[string]any{
			"success":         false,
			"status":          "error",
			"message":         "Webhook processing failed",
			"event_id":        res.EventID,
			"event_type":      res.EventType,
			"processing_time": seconds,
			"error":           msg,
		})
	default:
		common.JSONSuccess(w, http.StatusOK, map[string]any{
			"status":          OutcomeSuccess,
			"message":         "Webhook processed successfully",
			"event_type":      res.EventType,
			"event_id":        res.EventID,
			"processing_time": seconds,
		})
	}
}
