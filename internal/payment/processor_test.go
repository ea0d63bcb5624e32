package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/paypal-orders/internal/order"
)

func pendingOrder(externalID string) order.Order {
	return order.Order{
		ID:            1,
		PayPalOrderID: externalID,
		PaymentStatus: order.StatusPending,
		UpdatedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func postWebhook(t *testing.T, p *Processor, body []byte, headers http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paypal", bytes.NewReader(body))
	for k, v := range headers {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	WebhookHandler{Processor: p}.Receive(rr, req)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	return rr, payload
}

func TestCompletedCaptureReconcilesOrder(t *testing.T) {
	store := newMemStore()
	orders := newFakeOrders(pendingOrder("TEST-1"))
	p := newTestProcessor(store, orders)
	before := orders.get("TEST-1").UpdatedAt

	rr, payload := postWebhook(t, p, captureBody("WH-1", EventCaptureCompleted, "TEST-1"), transmissionHeaders())

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, true, payload["success"])
	require.Equal(t, "success", payload["status"])
	require.Equal(t, "WH-1", payload["event_id"])
	require.Equal(t, EventCaptureCompleted, payload["event_type"])
	require.Contains(t, payload, "processing_time")

	updated := orders.get("TEST-1")
	require.Equal(t, order.StatusCompleted, updated.PaymentStatus)
	require.True(t, updated.UpdatedAt.After(before))

	row, err := store.GetByEventID(context.Background(), "WH-1")
	require.NoError(t, err)
	require.True(t, row.Processed)
	require.False(t, row.ErrorMessage.Valid)
	require.Equal(t, "TEST-1", row.ResourceID.String)
	require.Equal(t, "42", row.Amount.Decimal.String())
	require.Equal(t, "USD", row.Currency.String)
}

func TestDeniedAndRefundedSetStatus(t *testing.T) {
	for eventType, want := range map[string]string{
		EventCaptureDenied:   order.StatusDenied,
		EventCaptureRefunded: order.StatusRefunded,
	} {
		t.Run(eventType, func(t *testing.T) {
			orders := newFakeOrders(pendingOrder("TEST-2"))
			p := newTestProcessor(newMemStore(), orders)
			res := p.Process(context.Background(), captureBody("WH-"+eventType, eventType, "TEST-2"), transmissionHeaders())
			require.Equal(t, OutcomeSuccess, res.Outcome)
			require.Equal(t, want, orders.get("TEST-2").PaymentStatus)
		})
	}
}

func TestInformationalEventsDoNotMutateOrders(t *testing.T) {
	for _, eventType := range []string{EventCapturePending, EventCaptureReversed} {
		t.Run(eventType, func(t *testing.T) {
			orders := newFakeOrders(pendingOrder("TEST-3"))
			p := newTestProcessor(newMemStore(), orders)
			res := p.Process(context.Background(), captureBody("WH-"+eventType, eventType, "TEST-3"), transmissionHeaders())
			require.Equal(t, OutcomeSuccess, res.Outcome)
			require.Equal(t, 0, orders.callCount())
			require.Equal(t, order.StatusPending, orders.get("TEST-3").PaymentStatus)
		})
	}

	orders := newFakeOrders(pendingOrder("TEST-3"))
	p := newTestProcessor(newMemStore(), orders)
	body := []byte(`{"id":"WH-CO","event_type":"CHECKOUT.ORDER.COMPLETED","resource_type":"checkout-order","resource":{"id":"TEST-3","status":"COMPLETED","payer":{"email_address":"buyer@example.com"},"purchase_units":[{"amount":{"value":"10.50","currency_code":"EUR"}}]}}`)
	res := p.Process(context.Background(), body, transmissionHeaders())
	require.Equal(t, OutcomeSuccess, res.Outcome)
	require.Equal(t, 0, orders.callCount())
}

func TestMissingOrderIsNotAnError(t *testing.T) {
	store := newMemStore()
	orders := newFakeOrders()
	p := newTestProcessor(store, orders)

	res := p.Process(context.Background(), captureBody("WH-404", EventCaptureCompleted, "NOPE"), transmissionHeaders())

	require.Equal(t, OutcomeSuccess, res.Outcome)
	// resource id first, then the related checkout order id
	require.Equal(t, 2, orders.callCount())
	row, err := store.GetByEventID(context.Background(), "WH-404")
	require.NoError(t, err)
	require.True(t, row.Processed)
}

func TestRelatedOrderIDFallback(t *testing.T) {
	orders := newFakeOrders(pendingOrder("ORDER-CAPTURE-9"))
	p := newTestProcessor(newMemStore(), orders)

	res := p.Process(context.Background(), captureBody("WH-9", EventCaptureCompleted, "CAPTURE-9"), transmissionHeaders())

	require.Equal(t, OutcomeSuccess, res.Outcome)
	require.Equal(t, order.StatusCompleted, orders.get("ORDER-CAPTURE-9").PaymentStatus)
}

func TestSequentialDuplicateDelivery(t *testing.T) {
	store := newMemStore()
	orders := newFakeOrders(pendingOrder("TEST-1"))
	p := newTestProcessor(store, orders)
	body := captureBody("WH-DUP", EventCaptureCompleted, "TEST-1")

	_, first := postWebhook(t, p, body, transmissionHeaders())
	rr, second := postWebhook(t, p, body, transmissionHeaders())

	require.Equal(t, "success", first["status"])
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "duplicate", second["status"])
	require.Equal(t, "WH-DUP", second["event_id"])
	require.Equal(t, 1, store.count())
	require.Equal(t, 1, orders.callCount())
}

func TestConcurrentDuplicateDelivery(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := newMemStore()
	orders := newFakeOrders(pendingOrder("TEST-1"))
	p := newTestProcessor(store, orders)
	body := captureBody("WH-RACE", EventCaptureCompleted, "TEST-1")

	const deliveries = 16
	results := make([]Result, deliveries)
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Process(context.Background(), body, transmissionHeaders())
		}(i)
	}
	wg.Wait()

	outcomes := map[string]int{}
	for _, res := range results {
		outcomes[res.Outcome]++
	}
	require.Equal(t, map[string]int{OutcomeSuccess: 1, OutcomeDuplicate: deliveries - 1}, outcomes)
	require.Equal(t, 1, store.count())
	require.Equal(t, 1, orders.callCount())
}

func TestMissingHeaderRejectsWithoutRecording(t *testing.T) {
	for _, name := range requiredHeaders {
		t.Run(name, func(t *testing.T) {
			store := newMemStore()
			p := newTestProcessor(store, newFakeOrders(pendingOrder("TEST-1")))
			headers := transmissionHeaders()
			headers.Del(name)

			rr, payload := postWebhook(t, p, captureBody("WH-1", EventCaptureCompleted, "TEST-1"), headers)

			require.Equal(t, http.StatusUnauthorized, rr.Code)
			require.Equal(t, false, payload["success"])
			require.Equal(t, 0, store.count())
		})
	}
}

func TestMalformedPayloadIsNotRecorded(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"id":`,
		"missing id":     `{"event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{}}`,
		"missing type":   `{"id":"WH-1","resource":{}}`,
		"array resource": `{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":[1,2]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			store := newMemStore()
			p := newTestProcessor(store, newFakeOrders())
			rr, _ := postWebhook(t, p, []byte(body), transmissionHeaders())
			require.Equal(t, http.StatusBadRequest, rr.Code)
			require.Equal(t, 0, store.count())
		})
	}
}

func TestHandlerFailureKeepsReceipt(t *testing.T) {
	store := newMemStore()
	orders := newFakeOrders(pendingOrder("TEST-1"))
	orders.failFor["TEST-1"] = errBoom
	p := newTestProcessor(store, orders)

	rr, payload := postWebhook(t, p, captureBody("WH-FAIL", EventCaptureCompleted, "TEST-1"), transmissionHeaders())

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, false, payload["success"])
	require.Equal(t, "error", payload["status"])
	require.Equal(t, "WH-FAIL", payload["event_id"])
	require.Contains(t, payload["error"], "database unavailable")
	require.Contains(t, payload, "processing_time")

	row, err := store.GetByEventID(context.Background(), "WH-FAIL")
	require.NoError(t, err)
	require.False(t, row.Processed)
	require.True(t, row.ErrorMessage.Valid)
	require.Contains(t, row.ErrorMessage.String, "database unavailable")

	// Redelivery sees the receipt.
	res := p.Process(context.Background(), captureBody("WH-FAIL", EventCaptureCompleted, "TEST-1"), transmissionHeaders())
	require.Equal(t, OutcomeDuplicate, res.Outcome)
}

func TestPanickingHandlerIsRecordedAsFailure(t *testing.T) {
	store := newMemStore()
	p := newTestProcessor(store, newFakeOrders())
	p.Dispatcher.Register(EventCaptureCompleted, KeyPaymentCompleted, func(context.Context, Event) error {
		panic("nil map")
	})

	res := p.Process(context.Background(), captureBody("WH-PANIC", EventCaptureCompleted, "TEST-1"), transmissionHeaders())

	require.Equal(t, OutcomeFailed, res.Outcome)
	require.True(t, res.Recorded)
	row, err := store.GetByEventID(context.Background(), "WH-PANIC")
	require.NoError(t, err)
	require.False(t, row.Processed)
	require.Contains(t, row.ErrorMessage.String, "payment_completed handler panic")
}

func TestUnknownEventTypeIsUnhandled(t *testing.T) {
	store := newMemStore()
	p := newTestProcessor(store, newFakeOrders())
	body := []byte(`{"id":"WH-U","event_type":"BILLING.SUBSCRIPTION.CREATED","resource_type":"subscription","resource":{"id":"I-1","status":"ACTIVE"}}`)

	rr, payload := postWebhook(t, p, body, transmissionHeaders())

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "unhandled", payload["status"])
	row, err := store.GetByEventID(context.Background(), "WH-U")
	require.NoError(t, err)
	require.True(t, row.Processed)
	assert.Equal(t, body, []byte(row.RawData))
}

func TestStoreFailureBeforeReceipt(t *testing.T) {
	store := newMemStore()
	store.failOn = errBoom
	p := newTestProcessor(store, newFakeOrders())

	rr, payload := postWebhook(t, p, captureBody("WH-1", EventCaptureCompleted, "TEST-1"), transmissionHeaders())

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, false, payload["success"])
	require.Equal(t, 0, store.count())
}

func TestProcessorMeasuresDispatchTime(t *testing.T) {
	store := newMemStore()
	p := newTestProcessor(store, newFakeOrders(pendingOrder("TEST-1")))
	tick := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time {
		tick = tick.Add(250 * time.Millisecond)
		return tick
	}

	res := p.Process(context.Background(), captureBody("WH-T", EventCaptureCompleted, "TEST-1"), transmissionHeaders())

	require.Equal(t, 250*time.Millisecond, res.Duration)
	row, err := store.GetByEventID(context.Background(), "WH-T")
	require.NoError(t, err)
	require.InDelta(t, 0.25, row.ProcessingTime.Float64, 1e-9)
}

func TestNilVerifierRejects(t *testing.T) {
	p := NewProcessor(nil, "", newMemStore(), NewDispatcher(&Reconciler{Logger: zerolog.Nop()}), zerolog.Nop())
	res := p.Process(context.Background(), captureBody("WH-1", EventCaptureCompleted, "T"), transmissionHeaders())
	require.Equal(t, OutcomeRejected, res.Outcome)
}
