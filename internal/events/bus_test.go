package events_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
	"github.com/noah-isme/paypal-orders/internal/events"
)

type stubStore struct {
	lastParams dbgen.InsertOrderStatusEventParams
	calls      int
	err        error
}

func (s *stubStore) InsertOrderStatusEvent(_ context.Context, arg dbgen.InsertOrderStatusEventParams) (dbgen.OrderStatusEvent, error) {
	s.calls++
	s.lastParams = arg
	if s.err != nil {
		return dbgen.OrderStatusEvent{}, s.err
	}
	return dbgen.OrderStatusEvent{
		ID:             int64(s.calls),
		OrderID:        arg.OrderID,
		PreviousStatus: arg.PreviousStatus,
		NewStatus:      arg.NewStatus,
		Source:         arg.Source,
		WebhookEventID: arg.WebhookEventID,
	}, nil
}

type captureNotifier struct {
	topics []string
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, topic string, _ dbgen.OrderStatusEvent) error {
	c.topics = append(c.topics, topic)
	return c.err
}

func TestEmitPersistsAndPublishes(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	event, err := bus.Emit(context.Background(), events.StatusChange{
		OrderID:        7,
		Previous:       "pending",
		Next:           "completed",
		Source:         events.SourceWebhook,
		WebhookEventID: "WH-1",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), store.lastParams.OrderID)
	require.Equal(t, pgtype.Text{String: "WH-1", Valid: true}, store.lastParams.WebhookEventID)
	require.Equal(t, "completed", event.NewStatus)
	require.Equal(t, []string{events.TopicOrderCompleted}, notifier.topics)
}

func TestRecordUsesProvidedStore(t *testing.T) {
	busStore := &stubStore{}
	txStore := &stubStore{}
	bus := events.Bus{Store: busStore}

	_, err := bus.Record(context.Background(), txStore, events.StatusChange{OrderID: 1, Next: "denied"})
	require.NoError(t, err)
	require.Equal(t, 0, busStore.calls)
	require.Equal(t, 1, txStore.calls)
	require.Equal(t, events.SourceSystem, txStore.lastParams.Source)
	require.False(t, txStore.lastParams.WebhookEventID.Valid)
}

func TestRecordValidatesInput(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Record(context.Background(), nil, events.StatusChange{Next: "completed"})
	require.Error(t, err)
	_, err = bus.Record(context.Background(), nil, events.StatusChange{OrderID: 1})
	require.Error(t, err)

	var empty events.Bus
	_, err = empty.Record(context.Background(), nil, events.StatusChange{OrderID: 1, Next: "completed"})
	require.Error(t, err)
}

func TestPublishJoinsNotifierErrors(t *testing.T) {
	first := &captureNotifier{err: errors.New("boom")}
	second := &captureNotifier{}
	bus := events.Bus{Notifiers: []events.Notifier{first, second}}

	err := bus.Publish(context.Background(), dbgen.OrderStatusEvent{NewStatus: "refunded"})
	require.ErrorContains(t, err, "boom")
	require.Equal(t, []string{events.TopicOrderRefunded}, second.topics)
}

func TestLogNotifierWritesTransition(t *testing.T) {
	var buf bytes.Buffer
	n := events.LogNotifier{Logger: zerolog.New(&buf)}
	require.NoError(t, n.Notify(context.Background(), events.TopicOrderDenied, dbgen.OrderStatusEvent{
		OrderID:        3,
		NewStatus:      "denied",
		Source:         events.SourceAdmin,
		WebhookEventID: pgtype.Text{String: "WH-9", Valid: true},
	}))
	require.Contains(t, buf.String(), `"event_id":"WH-9"`)
	require.Contains(t, buf.String(), `"message":"order_status_changed"`)
}

func TestTopicForStatus(t *testing.T) {
	require.Equal(t, events.TopicOrderCompleted, events.TopicForStatus("COMPLETED"))
	require.Equal(t, events.TopicOrderStatusChanged, events.TopicForStatus("shipped"))
}
