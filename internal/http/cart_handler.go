package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pokefigs/storefront/internal/service"
)

type CartHandler struct {
	carts   service.CartService
	timeout time.Duration
}

func NewCartHandler(carts service.CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

// AddItemRequestDTO carries the quantity as a pointer so an omitted value
// (defaults to 1) and an explicit zero (rejected) stay distinguishable.
type AddItemRequestDTO struct {
	ProductID  string            `json:"productId"`
	VariantID  string            `json:"variantId"`
	Quantity   *int              `json:"quantity"`
	Attributes map[string]string `json:"attributes"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var errs []FieldError
	productID, err := parseObjectIDHex(req.ProductID)
	if err != nil {
		errs = append(errs, FieldError{Field: "productId", Message: "must be a valid object id"})
	}
	quantity := 1
	if req.Quantity != nil {
		if *req.Quantity < 1 || *req.Quantity > 99 {
			errs = append(errs, FieldError{Field: "quantity", Message: "quantity must be between 1 and 99"})
		}
		quantity = *req.Quantity
	}
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	cart, err := h.carts.AddOrUpdateItem(ctx, userID, productID, req.VariantID, quantity, req.Attributes)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID, ok := parseObjectIDParam(w, r, "productId")
	if !ok {
		return
	}

	cart, err := h.carts.RemoveProduct(ctx, userID, productID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}
