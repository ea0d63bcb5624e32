package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paypal-orders/internal/common"
	"github.com/noah-isme/paypal-orders/internal/events"
)

// Service implements order creation, reads and status mutation.
type Service struct {
	repo     Repository
	bus      *events.Bus
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewService constructs a Service. bus may be nil when no notifiers are wired.
func NewService(repo Repository, bus *events.Bus, validate *validator.Validate, logger zerolog.Logger) *Service {
	if validate == nil {
		validate = common.NewValidator()
	}
	return &Service{repo: repo, bus: bus, validate: validate, logger: logger}
}

// Create validates the storefront payload and stores the order.
func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	if err := s.validate.Struct(in); err != nil {
		return Order{}, validationError(err)
	}
	params, err := in.toParams()
	if err != nil {
		return Order{}, err
	}
	row, err := s.repo.Create(ctx, params)
	if err != nil {
		return Order{}, err
	}
	s.logger.Info().
		Int64("order_id", row.ID).
		Str("paypal_order_id", row.PaypalOrderID).
		Str("payment_status", row.PaymentStatus).
		Msg("order_created")
	return fromRow(row), nil
}

// List returns a page of orders, newest first.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Order, common.Pagination, error) {
	rows, total, err := s.repo.List(ctx, int32(perPage), int32(common.Offset(page, perPage)))
	if err != nil {
		return nil, common.Pagination{}, err
	}
	return fromRows(rows), common.NewPagination(page, perPage, total), nil
}

// Get returns the order with the given internal id.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	row, err := s.repo.Get(ctx, Key{ID: id})
	if err != nil {
		return Order{}, err
	}
	return fromRow(row), nil
}

// GetByExternalID returns the order with the given PayPal order id.
func (s *Service) GetByExternalID(ctx context.Context, externalID string) (Order, error) {
	trimmed := strings.TrimSpace(externalID)
	if trimmed == "" {
		return Order{}, ErrNotFound
	}
	row, err := s.repo.Get(ctx, Key{ExternalID: trimmed})
	if err != nil {
		return Order{}, err
	}
	return fromRow(row), nil
}

// SetStatus is the admin status write. Only known statuses are accepted.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (Order, error) {
	normalized, ok := NormalizeStatus(status)
	if !ok {
		appErr := common.NewAppError("VALIDATION_ERROR", "unknown payment status", http.StatusBadRequest, nil)
		appErr.Details = map[string]any{"status": status, "allowed": KnownStatuses()}
		return Order{}, appErr
	}
	return s.write(ctx, StatusWrite{Key: Key{ID: id}, Status: normalized, Source: events.SourceAdmin})
}

// ApplyExternalStatus is the reconciliation write keyed by PayPal order id.
// Writes are last-writer-wins; ErrNotFound is returned when no order matches.
func (s *Service) ApplyExternalStatus(ctx context.Context, externalID, status, webhookEventID string) (Order, error) {
	trimmed := strings.TrimSpace(externalID)
	if trimmed == "" {
		return Order{}, ErrNotFound
	}
	return s.write(ctx, StatusWrite{
		Key:            Key{ExternalID: trimmed},
		Status:         status,
		Source:         events.SourceWebhook,
		WebhookEventID: webhookEventID,
	})
}

func (s *Service) write(ctx context.Context, w StatusWrite) (Order, error) {
	update, err := s.repo.UpdateStatus(ctx, w)
	if err != nil {
		return Order{}, err
	}
	if s.bus != nil {
		if err := s.bus.Publish(ctx, update.History); err != nil {
			s.logger.Warn().Err(err).Int64("order_id", update.Order.ID).Msg("publish status change")
		}
	}
	return fromRow(update.Order), nil
}

// Stats aggregates totals over all orders.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	row, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalOrders: row.TotalOrders, CompletedOrders: row.CompletedOrders, TotalRevenue: row.TotalRevenue}, nil
}

// History lists the status changes of one order.
func (s *Service) History(ctx context.Context, id int64) ([]StatusEvent, error) {
	rows, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]StatusEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, statusEventFromRow(row))
	}
	return out, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		appErr := common.NewAppError("VALIDATION_ERROR", "invalid order payload", http.StatusBadRequest, err)
		appErr.Details = common.ValidationDetails(err)
		return appErr
	}
	return fmt.Errorf("validate order: %w", err)
}
