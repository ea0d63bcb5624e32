package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paypal-orders/internal/common"
)

// Handler exposes the order HTTP endpoints.
type Handler struct {
	Service *Service
	Logger  zerolog.Logger
}

type statusRequest struct {
	Status string `json:"status"`
}

// Create handles POST /api/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	created, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONSuccess(w, http.StatusCreated, map[string]any{
		"message": "Order created successfully",
		"order":   created,
	})
}

// List handles GET /api/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20, 100)
	orders, pagination, err := h.Service.List(r.Context(), page, perPage)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(pagination.TotalItems))
	common.JSONSuccess(w, http.StatusOK, map[string]any{
		"orders":     orders,
		"pagination": pagination,
	})
}

// Get handles GET /api/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	found, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONSuccess(w, http.StatusOK, map[string]any{"order": found})
}

// GetByExternalID handles GET /api/orders/paypal/{externalId}.
func (h *Handler) GetByExternalID(w http.ResponseWriter, r *http.Request) {
	found, err := h.Service.GetByExternalID(r.Context(), chi.URLParam(r, "externalId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONSuccess(w, http.StatusOK, map[string]any{"order": found})
}

// UpdateStatus handles PUT /api/orders/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	updated, err := h.Service.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONSuccess(w, http.StatusOK, map[string]any{
		"message": "Order status updated",
		"order":   updated,
	})
}

// History handles GET /api/orders/{id}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	history, err := h.Service.History(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONSuccess(w, http.StatusOK, map[string]any{"history": history})
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONSuccess(w, http.StatusOK, map[string]any{"stats": stats})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	case errors.Is(err, ErrDuplicateExternalID):
		common.JSONError(w, http.StatusConflict, "ORDER_EXISTS", "an order with this PayPal order id already exists", nil)
	default:
		var appErr *common.AppError
		if !errors.As(err, &appErr) {
			h.Logger.Error().Err(err).Msg("order request failed")
		}
		common.WriteError(w, err)
	}
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, "INVALID_ID", "order id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
