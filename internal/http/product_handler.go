package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pokefigs/storefront/internal/domain"
	"github.com/pokefigs/storefront/internal/service"
)

type ProductHandler struct {
	catalog service.CatalogService
	timeout time.Duration
}

func NewProductHandler(catalog service.CatalogService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ProductListResponse struct {
	Data []*domain.Product   `json:"data"`
	Meta *service.Pagination `json:"meta"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := service.ListProductsQuery{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		Sort:     r.URL.Query().Get("sort"),
	}

	var errs []FieldError
	q.Page = parsePositiveInt(r, "page", &errs)
	q.Limit = parsePositiveInt(r, "limit", &errs)
	q.PriceMin = parseOptionalInt(r, "priceMin", &errs)
	q.PriceMax = parseOptionalInt(r, "priceMax", &errs)
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	products, meta, err := h.catalog.ListProducts(ctx, q)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}

	respondJSON(w, http.StatusOK, ProductListResponse{Data: products, Meta: meta})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseObjectIDParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var errs []FieldError
	if req.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}
	if req.Category == "" {
		errs = append(errs, FieldError{Field: "category", Message: "category is required"})
	}
	if len(req.Variants) == 0 {
		errs = append(errs, FieldError{Field: "variants", Message: "at least one variant is required"})
	}
	errs = append(errs, validateVariants(req.Variants)...)
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	product, err := h.catalog.CreateProduct(ctx, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseObjectIDParam(w, r, "id")
	if !ok {
		return
	}

	var req service.UpdateProductInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var errs []FieldError
	if req.Name != nil && *req.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name cannot be empty"})
	}
	if req.Variants != nil {
		errs = append(errs, validateVariants(*req.Variants)...)
	}
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, id, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseObjectIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(ctx, id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func validateVariants(variants []service.VariantInput) []FieldError {
	var errs []FieldError
	for i, v := range variants {
		prefix := "variants[" + strconv.Itoa(i) + "]"
		if v.VariantID == "" {
			errs = append(errs, FieldError{Field: prefix + ".variantId", Message: "variantId is required"})
		}
		if v.Price < 0 {
			errs = append(errs, FieldError{Field: prefix + ".price", Message: "price must be non-negative"})
		}
		if v.Stock < 0 {
			errs = append(errs, FieldError{Field: prefix + ".stock", Message: "stock must be non-negative"})
		}
		if v.Status != "" && !validVariantStatus(v.Status) {
			errs = append(errs, FieldError{Field: prefix + ".status", Message: "status must be active, out_of_stock or discontinued"})
		}
	}
	return errs
}

func validVariantStatus(status string) bool {
	switch domain.VariantStatus(status) {
	case domain.VariantStatusActive, domain.VariantStatusOutOfStock, domain.VariantStatusDiscontinued:
		return true
	}
	return false
}

func parseObjectIDParam(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	raw := chi.URLParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		respondValidationErrors(w, []FieldError{{Field: name, Message: "must be a valid object id"}})
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseObjectIDHex(raw string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(raw)
}

func parsePositiveInt(r *http.Request, name string, errs *[]FieldError) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		*errs = append(*errs, FieldError{Field: name, Message: "must be a positive integer"})
		return 0
	}
	return n
}

func parseOptionalInt(r *http.Request, name string, errs *[]FieldError) *int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		*errs = append(*errs, FieldError{Field: name, Message: "must be a non-negative integer"})
		return nil
	}
	return &n
}
