package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pokefigs/storefront/internal/domain"
	"github.com/pokefigs/storefront/internal/service"
)

type OrderHandler struct {
	orders  service.OrderService
	timeout time.Duration
}

func NewOrderHandler(orders service.OrderService, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req service.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var errs []FieldError
	if len(req.Items) == 0 {
		errs = append(errs, FieldError{Field: "items", Message: "items required"})
	}
	for i, item := range req.Items {
		prefix := "items[" + strconv.Itoa(i) + "]"
		if _, err := parseObjectIDHex(item.ProductID); err != nil {
			errs = append(errs, FieldError{Field: prefix + ".productId", Message: "must be a valid object id"})
		}
		if item.Quantity != nil && *item.Quantity < 1 {
			errs = append(errs, FieldError{Field: prefix + ".quantity", Message: "quantity must be a positive integer"})
		}
	}
	if req.ShippingFee < 0 {
		errs = append(errs, FieldError{Field: "shippingFee", Message: "shippingFee must be non-negative"})
	}
	if req.Shipping.Status != "" && !domain.ShippingStatus(req.Shipping.Status).Valid() {
		errs = append(errs, FieldError{Field: "shipping.status", Message: "status must be pending, shipped, delivered or cancelled"})
	}
	if req.Payment.Status != "" && !domain.PaymentStatus(req.Payment.Status).Valid() {
		errs = append(errs, FieldError{Field: "payment.status", Message: "status must be pending, paid, failed or refunded"})
	}
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	order, err := h.orders.Settle(ctx, userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrders(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}

// ListAll serves the admin order view; role gating happens upstream.
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListAllOrders(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondValidationErrors(w, []FieldError{{Field: "id", Message: "must be a valid order id"}})
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}
